package model

// Stage is a claim's position in the fixed development workflow
type Stage string

const (
	StageDesign       Stage = "Design"
	StageUnclaimed    Stage = "Unclaimed"
	StageClaimPending Stage = "Claim Pending"
	StageInDev        Stage = "In Development"
	StagePendingRev   Stage = "Pending Review"
	StageUnderRev     Stage = "Under Review"
	StageReadyToMerge Stage = "Ready to Merge"
	StageMerged       Stage = "Merged"
)

// Stages is the ordered workflow vocabulary. The order is the domain's
// progress axis: every sort and "mean stage" computation depends on it.
var Stages = []Stage{
	StageDesign,
	StageUnclaimed,
	StageClaimPending,
	StageInDev,
	StagePendingRev,
	StageUnderRev,
	StageReadyToMerge,
	StageMerged,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(Stages))
	for i, s := range Stages {
		m[s] = i
	}
	return m
}()

// Index returns the stage's position on the progress axis, or -1 for a
// stage outside the vocabulary (scrapes occasionally carry stray values).
func (s Stage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// Known reports whether the stage is part of the fixed vocabulary.
func (s Stage) Known() bool {
	_, ok := stageIndex[s]
	return ok
}
