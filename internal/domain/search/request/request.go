// Package request defines the validated search request value type.
package request

import (
	"fmt"
	"strings"

	"github.com/corpusgate/corpusgate/internal/domain"
	"github.com/corpusgate/corpusgate/internal/domain/search/stype"
)

// TargetAuto requests a search across all eligible collections.
const TargetAuto = "auto"

// Request is one validated search request.
type Request struct {
	searchType stype.Type
	query      string
	target     string
	requester  string
}

// New validates and builds a search request. The query is kept verbatim;
// normalization happens only for fingerprinting.
func New(rawType, query, target, requester string) (Request, error) {
	t, err := stype.Parse(rawType)
	if err != nil {
		return Request{}, err
	}
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}
	if requester == "" {
		return Request{}, fmt.Errorf("%w: missing requester", domain.ErrInvalidRequest)
	}
	if target == "" {
		target = TargetAuto
	}
	return Request{
		searchType: t,
		query:      strings.TrimSpace(query),
		target:     target,
		requester:  requester,
	}, nil
}

// Type returns the search type.
func (r Request) Type() stype.Type { return r.searchType }

// Query returns the trimmed query text.
func (r Request) Query() string { return r.query }

// Target returns the explicit collection target, or TargetAuto.
func (r Request) Target() string { return r.target }

// AllCollections reports whether the request targets every collection.
func (r Request) AllCollections() bool { return r.target == TargetAuto }

// Requester returns the authenticated requester id.
func (r Request) Requester() string { return r.requester }
