// Package messages centralizes log and API-response message literals so they
// can be reused across the code-base and kept consistent. Constants are
// grouped by functional area (API, Ingest, Processor, Metadata).
package messages

// Log and API response message constants.
const (
	// API – upload endpoint
	MsgUploadAccepted  = "upload accepted, processing started"
	RespNoFileUploaded = "no file uploaded"
	RespFileTooLarge   = "uploaded file exceeds the size limit"
	RespEmptyFile      = "uploaded file is empty"

	// API – layer lookup
	RespLayerNotFound    = "layer not found"
	RespMetadataNotFound = "no usable metadata found for layer"
	RespInvalidBounds    = "invalid bounds payload"
	RespInvalidFilename  = "invalid image filename"
	RespImageNotFound    = "image not found"

	// Ingest – background processing
	MsgProcessingStarted  = "background processing started"
	MsgProcessingDone     = "layer processed"
	MsgProcessingFailed   = "layer processing failed"
	MsgTempFileRemoved    = "temp upload file removed"
	ErrNoRasterInUpload   = "no raster payload found in upload"
	ErrProcessingPanicked = "internal error while processing layer"

	// Processor supervision
	ErrProcessorSpawn     = "failed to start raster processor"
	ErrProcessorExit      = "raster processor exited with an error"
	ErrProcessorTimeout   = "raster processor timed out"
	ErrProcessorCancelled = "raster processor run cancelled by shutdown"
	ErrResultMarkerGone   = "raster processor produced no result line"
	ErrResultUnparseable  = "raster processor result line is not parseable"
	ErrResultFailure      = "raster processor reported failure"

	// Metadata recovery
	MsgLayerRecovered  = "layer state rebuilt from metadata"
	MsgRecoveryStarted = "walking persisted layers for recovery"
	MsgRecoveryDone    = "recovery walk finished"
)
