// Package ews models the Exchange Web Services identifiers attached to
// reservations that are mirrored into an Exchange calendar.
package ews

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// XML namespaces used by Exchange Web Services payloads.
const (
	NamespaceTypes    = "http://schemas.microsoft.com/exchange/services/2006/types"
	NamespaceMessages = "http://schemas.microsoft.com/exchange/services/2006/messages"
)

// ErrNoItemID is returned when a document carries no ItemId element.
var ErrNoItemID = errors.New("no ItemId element in document")

// ItemID is the Exchange identifier of a calendar item. The id part is
// stable for the lifetime of the item while the change key advances on
// every modification, so equality and hashing only consider the id.
type ItemID struct {
	id        string
	changeKey string
	hash      string
}

// NewItemID builds an ItemID from its raw parts.
func NewItemID(id, changeKey string) (ItemID, error) {
	if id == "" {
		return ItemID{}, errors.New("item id must not be empty")
	}
	return ItemID{id: id, changeKey: changeKey}, nil
}

func (i ItemID) ID() string        { return i.id }
func (i ItemID) ChangeKey() string { return i.changeKey }

// Hash returns the md5 hex digest of the stable id part. It is used as
// the lookup key for mirrored reservations, so two ItemIDs that differ
// only in change key hash identically.
func (i *ItemID) Hash() string {
	if i.hash == "" {
		sum := md5.Sum([]byte(i.id))
		i.hash = hex.EncodeToString(sum[:])
	}
	return i.hash
}

// AppendTo adds a t:ItemId element carrying this identifier to parent.
func (i ItemID) AppendTo(parent *etree.Element) *etree.Element {
	el := parent.CreateElement("t:ItemId")
	el.CreateAttr("Id", i.id)
	if i.changeKey != "" {
		el.CreateAttr("ChangeKey", i.changeKey)
	}
	return el
}

// ToXML serializes the identifier as a standalone t:ItemId fragment.
func (i ItemID) ToXML() (string, error) {
	doc := etree.NewDocument()
	el := doc.CreateElement("t:ItemId")
	el.CreateAttr("xmlns:t", NamespaceTypes)
	el.CreateAttr("Id", i.id)
	if i.changeKey != "" {
		el.CreateAttr("ChangeKey", i.changeKey)
	}
	return doc.WriteToString()
}

// ItemIDFromDocument finds the first ItemId element anywhere in doc and
// returns the identifier it carries. Namespace prefixes vary between
// Exchange versions, so the search matches the local element name.
func ItemIDFromDocument(doc *etree.Document) (ItemID, error) {
	el := findByLocalName(&doc.Element, "ItemId")
	if el == nil {
		return ItemID{}, ErrNoItemID
	}
	id := el.SelectAttrValue("Id", "")
	if id == "" {
		return ItemID{}, fmt.Errorf("ItemId element has no Id attribute")
	}
	return ItemID{id: id, changeKey: el.SelectAttrValue("ChangeKey", "")}, nil
}

func findByLocalName(el *etree.Element, name string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			return child
		}
		if found := findByLocalName(child, name); found != nil {
			return found
		}
	}
	return nil
}

// ParseItemID parses an XML document and extracts its ItemId.
func ParseItemID(raw []byte) (ItemID, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return ItemID{}, fmt.Errorf("parse xml: %w", err)
	}
	return ItemIDFromDocument(doc)
}
