package worker

import "fmt"

// Kind discriminates the messages exchanged between a worker and the host.
type Kind string

const (
	// KindExtract asks a worker to process one archive.
	KindExtract Kind = "extract"
	// KindFSRequest is a proxied host-capability call issued by a worker.
	KindFSRequest Kind = "fs_request"
	// KindFSResponse answers exactly one fs_request, correlated by id.
	KindFSResponse Kind = "fs_response"
	// KindProgress is an asynchronous progress notification.
	KindProgress Kind = "progress"
	// KindExtractComplete carries a worker's terminal success.
	KindExtractComplete Kind = "extract-complete"
	// KindError carries a worker's terminal failure.
	KindError Kind = "error"
)

// Operation names a host capability a worker may invoke.
type Operation string

const (
	OpMkdir        Operation = "mkdir"
	OpExists       Operation = "exists"
	OpWriteFile    Operation = "writeFile"
	OpReadFile     Operation = "readFile"
	OpReadTextFile Operation = "readTextFile"
	OpRemove       Operation = "remove"
	OpTranscode    Operation = "transcode"
)

// Message is the single envelope for every worker/host exchange. Which
// fields are meaningful depends on Kind.
type Message struct {
	Kind      Kind
	RequestID uint64
	Op        Operation
	// Args carries positional string arguments (paths); Data carries file
	// contents for writeFile.
	Args []string
	Data []byte
	// Result and Err answer an fs_request.
	Result any
	Err    string
	// SetID tags notifications so the host can route them to the right
	// in-flight download.
	SetID   string
	Percent int
	// Complete is populated on extract-complete.
	Complete *ExtractComplete
}

// ExtractComplete is the terminal payload of a successful extraction.
type ExtractComplete struct {
	SetID          string
	AudioData      []byte
	AudioPath      string
	VariantID      string
	AssetPaths     []string
	MultipleAudios bool
	Title          string
	Artist         string
}

// ProxyError is an error message relayed from the other context.
type ProxyError struct {
	Op      Operation
	Message string
}

func (e *ProxyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("proxied %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("worker error: %s", e.Message)
}
