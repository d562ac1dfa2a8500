package model

// TransferMeta is the journal entry for the latest transfer of one artifact file
type TransferMeta struct {
	Coordinates string         `json:"coordinates"`
	Size        int64          `json:"size"`
	ModTime     int64          `json:"mtime"`
	Status      TransferStatus `json:"status"`
	UpdatedAt   int64          `json:"updated_at"`
	Error       string         `json:"error,omitempty"`
}
