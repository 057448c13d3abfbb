package installer

import "errors"

var (
	// ErrUnsupportedEnvironment reports a host that cannot run the framework.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	// ErrTargetAlreadyExists reports a destination that is already taken.
	ErrTargetAlreadyExists = errors.New("application already exists")
	// ErrDownloadFailed reports a transport failure while fetching the skeleton.
	ErrDownloadFailed = errors.New("unable to download the skeleton")
	// ErrInvalidArchive reports downloaded bytes that are not a zip archive.
	ErrInvalidArchive = errors.New("the downloaded file is not a valid archive")
	// ErrExtractionFailed reports an archive that could not be written to the target.
	ErrExtractionFailed = errors.New("unable to extract the skeleton")
)
