package cache

import (
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Key namespaces.
const (
	httpNamespace    = "http"
	computeNamespace = "compute"
)

// ResponseKey identifies one cached read response. Responses are per acting
// user, so two users never share an entry.
type ResponseKey struct {
	Model  string
	Action string
	ID     string
	Query  url.Values
	UserID uuid.UUID
}

// String renders http:{model}:{action}:{id}:{query}:{user} with query
// parameters sorted so equivalent URLs share a key.
func (k ResponseKey) String() string {
	id := k.ID
	if id == "" {
		id = "-"
	}
	user := "-"
	if k.UserID != uuid.Nil {
		user = k.UserID.String()
	}
	return strings.Join([]string{httpNamespace, k.Model, k.Action, id, CanonicalQuery(k.Query), user}, ":")
}

// CanonicalQuery encodes values with keys and each key's values sorted.
func CanonicalQuery(values url.Values) string {
	if len(values) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ModelPattern matches every cached response for model.
func ModelPattern(model string) string {
	return httpNamespace + ":" + model + ":*"
}

// RecordPattern matches cached responses for one record of model, whatever
// the query or user.
func RecordPattern(model, action, id string) string {
	return strings.Join([]string{httpNamespace, model, action, id}, ":") + ":*"
}

// ComputeKey identifies a computed value by kind and sorted parameters.
func ComputeKey(kind string, params map[string]string) string {
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	return computeNamespace + ":" + kind + ":" + CanonicalQuery(q)
}

// ComputePattern matches every computed value of kind.
func ComputePattern(kind string) string {
	return computeNamespace + ":" + kind + ":*"
}
