// Package stype defines the fixed set of search field classes.
package stype

import (
	"fmt"

	"github.com/corpusgate/corpusgate/internal/domain"
)

// Type is one of the supported search field classes.
type Type string

const (
	// Name searches person names.
	Name Type = "name"
	// IDCard searches identity card / identifier numbers.
	IDCard Type = "idcard"
	// Phone searches phone numbers.
	Phone Type = "phone"
	// QQ searches QQ account numbers.
	QQ Type = "qq"
	// WeChat searches WeChat account ids.
	WeChat Type = "wechat"
	// Weibo searches Weibo account ids.
	Weibo Type = "weibo"
	// Email searches email addresses. Email queries are exact-match only.
	Email Type = "email"
	// Address searches postal addresses.
	Address Type = "address"
	// Company searches company names.
	Company Type = "company"
)

// All lists every supported search type in a stable order.
func All() []Type {
	return []Type{Name, IDCard, Phone, QQ, WeChat, Weibo, Email, Address, Company}
}

// Valid reports whether t is a recognized search type.
func (t Type) Valid() bool {
	switch t {
	case Name, IDCard, Phone, QQ, WeChat, Weibo, Email, Address, Company:
		return true
	}
	return false
}

// Parse converts a raw string into a Type.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedSearchType, s)
	}
	return t, nil
}
