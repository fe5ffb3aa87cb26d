package config

type WorkerKeyStruct struct {
	ArchiveSessionsQueue string
	PersistSnapshotQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ArchiveSessionsQueue: "archive_sessions_queue",
	PersistSnapshotQueue: "persist_snapshots_queue",
}
