package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	AppName = "stockroom"
)

// Raw status values written by the register.
const (
	StatusValueInUse     = "In Use"
	StatusValueStockRoom = "Stock Room"

	faultyMarker = "Faulty"
)

// StatusKind is the closed classification of an asset status.
type StatusKind uint8

const (
	StatusOther StatusKind = iota
	StatusInUse
	StatusStockRoom
	StatusFaulty
)

func (k StatusKind) String() string {
	switch k {
	case StatusInUse:
		return "in-use"
	case StatusStockRoom:
		return "stock-room"
	case StatusFaulty:
		return "faulty"
	default:
		return "other"
	}
}

// ClassifyStatus maps a raw status string onto its StatusKind.
func ClassifyStatus(status string) StatusKind {
	switch {
	case status == StatusValueInUse:
		return StatusInUse
	case status == StatusValueStockRoom:
		return StatusStockRoom
	case strings.Contains(status, faultyMarker):
		return StatusFaulty
	default:
		return StatusOther
	}
}

// AvailableAction returns the action an operator may trigger for the kind.
// Faulty and unrecognized assets have none.
func (k StatusKind) AvailableAction() (Action, bool) {
	switch k {
	case StatusInUse:
		return ActionCheckin, true
	case StatusStockRoom:
		return ActionCheckout, true
	default:
		return "", false
	}
}

// AssetID is an opaque identifier, compared by its string form.
//
// The register hands out numbers or strings depending on the sheet cell,
// the JSON kind is kept so requests echo the identifier as it was received.
type AssetID struct {
	text    string
	numeric bool
}

// NewAssetID returns a string identifier.
func NewAssetID(s string) AssetID {
	return AssetID{text: s}
}

func (id AssetID) String() string {
	return id.text
}

// Equal compares identifiers by string equality regardless of JSON kind.
func (id AssetID) Equal(other AssetID) bool {
	return id.text == other.text
}

func (id *AssetID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*id = AssetID{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "asset id")
		}

		*id = AssetID{text: s}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			*id = AssetID{text: string(data)}
			return nil
		}

		*id = AssetID{text: numberText(n), numeric: true}
	}

	return nil
}

// maxExactInteger bounds the floats that print as plain integers.
const maxExactInteger = 1e15

// numberText renders integral numbers without a fraction or exponent, so a
// sheet cell holding 42.0 and one holding 42 name the same asset.
func numberText(n json.Number) string {
	if _, err := n.Int64(); err == nil {
		return n.String()
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= maxExactInteger {
		return n.String()
	}

	return strconv.FormatInt(int64(f), 10)
}

func (id AssetID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.text), nil
	}

	return json.Marshal(id.text)
}

// Asset is one tracked device as held by the register.
// nolint:govet // prefer to keep field ordering as is
type Asset struct {
	ID AssetID `json:"id"`

	// Search keys
	Serial   string `json:"serial"`
	AssetTag string `json:"assetTag"`
	User     string `json:"user"`

	// Status is the raw register value, Kind its classification.
	Status string     `json:"status"`
	Kind   StatusKind `json:"-"`

	// Display only
	LeaseEnd    string `json:"leaseEnd"`
	Description string `json:"description"`
}

// SetStatus updates the raw status and its classification together.
func (a *Asset) SetStatus(status string) {
	a.Status = status
	a.Kind = ClassifyStatus(status)
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          AssetID   `json:"id"`
		Serial      cellValue `json:"serial"`
		AssetTag    cellValue `json:"assetTag"`
		User        cellValue `json:"user"`
		Status      cellValue `json:"status"`
		LeaseEnd    cellValue `json:"leaseEnd"`
		Description cellValue `json:"description"`
	}

	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*a = Asset{
		ID:          wire.ID,
		Serial:      string(wire.Serial),
		AssetTag:    string(wire.AssetTag),
		User:        string(wire.User),
		LeaseEnd:    string(wire.LeaseEnd),
		Description: string(wire.Description),
	}
	a.SetStatus(string(wire.Status))

	return nil
}

func (a *Asset) AsLogFields() []any {
	return []any{
		"asset_id", a.ID.String(),
		"serial", a.Serial,
		"asset_tag", a.AssetTag,
		"user", a.User,
		"status", a.Status,
	}
}

// cellValue decodes a spreadsheet cell into text, null becomes empty and
// numbers or booleans keep their literal form.
type cellValue string

func (c *cellValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*c = cellValue(s)
	default:
		*c = cellValue(data)
	}

	return nil
}

// Action is a custody transition requested from the register.
type Action string

const (
	ActionCheckin  Action = "checkin"
	ActionCheckout Action = "checkout"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionCheckin:
		return ActionCheckin, nil
	case ActionCheckout:
		return ActionCheckout, nil
	default:
		return "", errors.Wrap(ErrInvalidAction, s)
	}
}

// MutationRequest is the body posted to the register.
type MutationRequest struct {
	ID     AssetID `json:"id"`
	Action Action  `json:"action"`
	User   string  `json:"user"`
}

func (r *MutationRequest) AsLogFields() []any {
	return []any{
		"asset_id", r.ID.String(),
		"action", string(r.Action),
		"user", r.User,
	}
}

// MutationResult is the register's answer to a MutationRequest.
type MutationResult struct {
	Success   bool   `json:"success"`
	NewStatus string `json:"newStatus"`
	// NewUser is nil when the register omits the field.
	NewUser *string `json:"newUser,omitempty"`
	Message string  `json:"message,omitempty"`
}

type Args struct {
	LogLevel        string
	ConfigFile      string
	Endpoint        string
	DryRun          bool
	EnableProfiling bool
}
