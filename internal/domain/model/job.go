package model

// Dataset names one of the per-contest datasets.
type Dataset string

const (
	DatasetStandings Dataset = "standings"
	DatasetExtended  Dataset = "extended"
)

// FetchJob asks the collector to download one dataset of one contest.
type FetchJob struct {
	ContestID ContestID
	Dataset   Dataset
	RunID     string
}

// Key identifies the job for de-duplication.
func (j FetchJob) Key() string {
	return string(j.Dataset) + ":" + string(j.ContestID)
}
