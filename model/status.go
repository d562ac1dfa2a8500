package model

import "fmt"

type TransferStatus int

const (
	StatusUploaded TransferStatus = iota
	StatusUploadFailed
	StatusDownloaded
	StatusDownloadFailed
)

func (s TransferStatus) String() string {
	switch s {
	case StatusUploaded:
		return "uploaded"
	case StatusUploadFailed:
		return "upload_failed"
	case StatusDownloaded:
		return "downloaded"
	case StatusDownloadFailed:
		return "download_failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Failed reports whether the status records an unsuccessful transfer
func (s TransferStatus) Failed() bool {
	return s == StatusUploadFailed || s == StatusDownloadFailed
}
