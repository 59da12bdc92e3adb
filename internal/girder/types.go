package girder

import (
	"fmt"
	"slices"
)

// OutputsFolderName is the child folder HistoQC writes per-image results into.
const OutputsFolderName = "histoqc_outputs"

// TerminalThreshold is the highest job status that still counts as running.
const TerminalThreshold = 2

// JobStatus mirrors Girder's numeric job status.
type JobStatus int

const (
	JobInactive JobStatus = iota
	JobQueued
	JobRunning
	JobSuccess
	JobError
	JobCancelled
)

// Terminal reports whether the job is no longer running. Success and failure
// are not distinguished.
func (s JobStatus) Terminal() bool {
	return int(s) > TerminalThreshold
}

func (s JobStatus) String() string {
	switch s {
	case JobInactive:
		return "inactive"
	case JobQueued:
		return "queued"
	case JobRunning:
		return "running"
	case JobSuccess:
		return "success"
	case JobError:
		return "error"
	case JobCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Job mirrors the subset of /job/{id} the widget reads. Log is the full
// accumulated log on every poll, not a delta.
type Job struct {
	ID     string    `json:"_id"`
	Status JobStatus `json:"status"`
	Log    []string  `json:"log"`
}

// Folder mirrors a /folder listing entry.
type Folder struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ParentID   string `json:"parentId"`
	ParentType string `json:"parentCollection"`
}

// ItemRef points at a Girder item.
type ItemRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Artifact is one HistoQC output image for a source slide.
type Artifact struct {
	ID   string `json:"_id"`
	Type string `json:"histoqcType"`
	Name string `json:"name"`
}

// OutputRecord groups the artifacts produced for one source image.
type OutputRecord struct {
	SourceImage ItemRef    `json:"source_image"`
	Outputs     []Artifact `json:"histoqc_outputs"`
}

// Outputs mirrors GET /folder/{id}/histoqc. Grouped is the item holding the
// tab-separated results for the whole folder.
type Outputs struct {
	Grouped    ItemRef        `json:"grouped"`
	Individual []OutputRecord `json:"individual"`
}

// ArtifactTypes is the vocabulary of type tags HistoQC emits.
var ArtifactTypes = []string{
	"thumb_small",
	"thumb",
	"areathresh",
	"blurry",
	"bright",
	"coverslip_edge",
	"dark",
	"deconv_c0",
	"deconv_c1",
	"deconv_c2",
	"fatlike",
	"flat",
	"fuse",
	"hist",
	"mask_use",
	"pen_markings",
	"small_fill",
	"small_remove",
	"spur",
}

// KnownArtifactType reports whether tag is part of ArtifactTypes.
func KnownArtifactType(tag string) bool {
	return slices.Contains(ArtifactTypes, tag)
}

type triggerResponse struct {
	ID string `json:"_id"`
}
