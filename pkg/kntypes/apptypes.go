// Types shared between the local cache side and the backend side
package kntypes

type SourceType string

const (
	SourceTypeMain    SourceType = "main"
	SourceTypeTag     SourceType = "tag"
	SourceTypeRelease SourceType = "release"
	SourceTypeBranch  SourceType = "branch"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceTypeMain, SourceTypeTag, SourceTypeRelease, SourceTypeBranch:
		return true
	default:
		return false
	}
}

// identifies which version of a source is materialized in a cache directory
type SourceMarker struct {
	Repo   string     `json:"repo"`
	Type   SourceType `json:"type"`
	Target string     `json:"target"`
}

func (s SourceMarker) String() string {
	return s.Repo + "@" + string(s.Type) + ":" + s.Target
}

// user's selection of a source. at most one of Tag, Release, Branch is honored.
type SourceSpec struct {
	Repo    string
	Tag     string
	Release string
	Branch  string
}

type FileMeta struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

type RemoteFile struct {
	ID   string   `json:"id"`
	Meta FileMeta `json:"meta"`
}

// collection references files, but does not own them
type Collection struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Files       []RemoteFile `json:"files"`
}

func (c Collection) TotalSize() int64 {
	total := int64(0)
	for _, file := range c.Files {
		total += file.Meta.Size
	}
	return total
}

type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AttachFileRequest struct {
	FileID string `json:"file_id"`
}

type CreatedRecord struct {
	ID string `json:"id"`
}
