package corpus

// systemCollections is the fixed deny-list of administrative collections
// that must never be searched. Matching is exact and case-sensitive.
var systemCollections = map[string]struct{}{
	"users":       {},
	"admins":      {},
	"sessions":    {},
	"settings":    {},
	"search_logs": {},
	"migrations":  {},
	"system":      {},
}
