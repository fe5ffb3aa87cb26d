package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSnapshotKey returns the cache key holding a candidate's
// in-progress session snapshot (resume-after-interruption).
func (r *CacheKeyStruct) CandidateSnapshotKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:session_snapshot", candidateID)
}

// CandidateProfileKey returns the cache key for a candidate's extracted profile.
func (r *CacheKeyStruct) CandidateProfileKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s:profile", candidateID)
}

var CacheKey = NewCacheKeyStruct()
