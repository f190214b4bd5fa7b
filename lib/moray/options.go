package moray

import (
	"github.com/google/uuid"
)

// Sort orders
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// SortOrder sorts find results by one attribute
type SortOrder struct {
	Attribute string `json:"attribute"`
	Order     string `json:"order,omitempty"` // SortAsc (default) or SortDesc
}

// BucketOptions are the per call options of bucket operations.
// The zero value means no special options.
type BucketOptions struct {
	// Request id used in the logs of client and service, generated if empty
	ReqID string
	// Server side timeout of the call
	TimeoutMillisecond int
	NoCache            bool
	// Extra is passed to the service as is, known fields take precedence
	Extra map[string]interface{}
}

// ObjectOptions are the per call options of object operations.
// The zero value means no special options.
type ObjectOptions struct {
	// Request id used in the logs of client and service, generated if empty
	ReqID string
	// Server side timeout of the call
	TimeoutMillisecond int
	// Conditional put or delete, only succeeds if the stored etag matches
	Etag string
	// Maximum number of find results (0 = service default)
	Limit  int
	Offset int
	Sort   *SortOrder
	// Skip the _count computation of find
	NoCount bool
	NoCache bool
	// Fail a find whose filter uses attributes that are not indexed
	RequireIndexes bool
	Headers        map[string]string
	// Extra is passed to the service as is, known fields take precedence
	Extra map[string]interface{}
}

// SQLOptions are free form options of the sql operation (e.g. "timeout")
type SQLOptions map[string]interface{}

// NewReqID returns a new random request id
func NewReqID() string {
	return uuid.NewString()
}

// RequestID returns the request id of an options argument created by ToArg
func RequestID(arg map[string]interface{}) string {
	reqID, _ := arg["req_id"].(string)
	return reqID
}

// ToArg returns the wire representation of the options.
// An empty ReqID is replaced by a new request id.
func (o BucketOptions) ToArg() map[string]interface{} {
	arg := copyExtra(o.Extra)

	arg["req_id"] = o.ReqID
	if o.ReqID == "" {
		arg["req_id"] = NewReqID()
	}
	if o.TimeoutMillisecond > 0 {
		arg["timeout"] = o.TimeoutMillisecond
	}
	if o.NoCache {
		arg["noCache"] = true
	}
	return arg
}

// ToArg returns the wire representation of the options.
// An empty ReqID is replaced by a new request id.
func (o ObjectOptions) ToArg() map[string]interface{} {
	arg := copyExtra(o.Extra)

	arg["req_id"] = o.ReqID
	if o.ReqID == "" {
		arg["req_id"] = NewReqID()
	}
	if o.TimeoutMillisecond > 0 {
		arg["timeout"] = o.TimeoutMillisecond
	}
	if o.Etag != "" {
		arg["etag"] = o.Etag
	}
	if o.Limit > 0 {
		arg["limit"] = o.Limit
	}
	if o.Offset > 0 {
		arg["offset"] = o.Offset
	}
	if o.Sort != nil && o.Sort.Attribute != "" {
		arg["sort"] = *o.Sort
	}
	if o.NoCount {
		arg["no_count"] = true
	}
	if o.NoCache {
		arg["noCache"] = true
	}
	if o.RequireIndexes {
		arg["requireIndexes"] = true
	}
	if len(o.Headers) > 0 {
		arg["headers"] = o.Headers
	}
	return arg
}

// ToArg returns the options as wire argument, never nil.
// A missing or empty req_id is replaced by a new request id.
func (o SQLOptions) ToArg() map[string]interface{} {
	arg := copyExtra(o)
	if reqID, _ := arg["req_id"].(string); reqID == "" {
		arg["req_id"] = NewReqID()
	}
	return arg
}

func copyExtra(extra map[string]interface{}) map[string]interface{} {
	arg := make(map[string]interface{}, len(extra)+4)
	for k, v := range extra {
		arg[k] = v
	}
	return arg
}
