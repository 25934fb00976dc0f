package item

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// wireRecord mirrors Header with JSON tags. Key order on the wire comes
// from marshalSortedKeys, not from the field order here; category-specific
// fields are nested under a single "fields" object to keep the
// tagged-union shape explicit on the wire.
type wireRecord struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Title      string          `json:"title"`
	Favorite   bool            `json:"favorite"`
	Tags       []string        `json:"tags"`
	CreatedAt  string          `json:"created_at"`
	ModifiedAt string          `json:"modified_at"`
	Fields     json.RawMessage `json:"fields"`
}

type wireLogin struct {
	Username        string                 `json:"username"`
	Password        string                 `json:"password"`
	URLs            []string               `json:"urls,omitempty"`
	TOTPSecret      string                 `json:"totp_secret,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	PasswordHistory []wirePasswordHistory  `json:"password_history,omitempty"`
}

type wirePasswordHistory struct {
	Password  string `json:"password"`
	ChangedAt string `json:"changed_at"`
}

type wireSecureNote struct {
	Body string `json:"body"`
}

type wireCreditCard struct {
	Cardholder string `json:"cardholder"`
	Number     string `json:"number"`
	CVV        string `json:"cvv,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	Brand      string `json:"brand,omitempty"`
}

type wireIdentity struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// timeLayout is RFC3339 with nanoseconds, so sub-second precision
// survives a round trip. UTC times are written with "Z"; other zones
// with a numeric offset.
const timeLayout = time.RFC3339Nano

// MarshalRecord serializes a Record to its canonical JSON form: map keys
// sorted, timestamps in timeLayout. A record of an unrecognized category
// that carries Unknown (as UnmarshalRecord produces) is written back with
// Unknown as its "fields" object instead of a typed variant.
func MarshalRecord(r *Record) ([]byte, error) {
	var fields any
	if _, perr := ParseCategory(string(r.Category)); perr != nil && r.Unknown != nil {
		fields = r.Unknown
	} else if err := r.Validate(); err != nil {
		return nil, err
	}

	switch r.Category {
	case CategoryLogin:
		hist := make([]wirePasswordHistory, 0, len(r.Login.PasswordHistory))
		for _, h := range r.Login.PasswordHistory {
			hist = append(hist, wirePasswordHistory{
				Password:  h.Password,
				ChangedAt: h.ChangedAt.Format(timeLayout),
			})
		}
		fields = wireLogin{
			Username:        r.Login.Username,
			Password:        r.Login.Password,
			URLs:            r.Login.URLs,
			TOTPSecret:      r.Login.TOTPSecret,
			Notes:           r.Login.Notes,
			PasswordHistory: hist,
		}
	case CategorySecureNote:
		fields = wireSecureNote{Body: r.SecureNote.Body}
	case CategoryCreditCard:
		fields = wireCreditCard{
			Cardholder: r.CreditCard.Cardholder,
			Number:     r.CreditCard.Number,
			CVV:        r.CreditCard.CVV,
			Expiry:     r.CreditCard.Expiry,
			Brand:      r.CreditCard.Brand,
		}
	case CategoryIdentity:
		fields = wireIdentity{
			FullName: r.Identity.FullName,
			Email:    r.Identity.Email,
			Phone:    r.Identity.Phone,
			Address:  r.Identity.Address,
		}
	default:
		if fields == nil {
			return nil, fmt.Errorf("item %s: unknown category %q", r.ID, r.Category)
		}
	}

	fieldsJSON, err := marshalSortedKeys(fields)
	if err != nil {
		return nil, fmt.Errorf("item %s: marshal fields: %w", r.ID, err)
	}

	wr := wireRecord{
		ID:         r.ID,
		Category:   string(r.Category),
		Title:      r.Title,
		Favorite:   r.Favorite,
		Tags:       r.Tags,
		CreatedAt:  r.CreatedAt.Format(timeLayout),
		ModifiedAt: r.ModifiedAt.Format(timeLayout),
		Fields:     fieldsJSON,
	}
	return marshalSortedKeys(wr)
}

// marshalSortedKeys marshals v, then re-marshals it through a generic
// map so object keys come out lexicographically sorted regardless of
// struct field order. encoding/json already sorts map[string]any keys on
// marshal, which is what this relies on.
func marshalSortedKeys(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// UnmarshalRecord parses the canonical JSON form back into a Record.
// Category is matched case-insensitively; unknown categories are kept
// as Unknown rather than rejected outright, so a vault written by a
// newer client still opens (without that item being fully usable) per
// the forward-compatibility goal in spec.md §4.6.
func UnmarshalRecord(data []byte) (*Record, error) {
	var wr wireRecord
	if err := json.Unmarshal(data, &wr); err != nil {
		return nil, fmt.Errorf("item: malformed record: %w", err)
	}

	createdAt, err := time.Parse(timeLayout, wr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("item %s: invalid created_at: %w", wr.ID, err)
	}
	modifiedAt, err := time.Parse(timeLayout, wr.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("item %s: invalid modified_at: %w", wr.ID, err)
	}

	r := &Record{
		Header: Header{
			ID:         wr.ID,
			Title:      wr.Title,
			Favorite:   wr.Favorite,
			Tags:       NormalizeTags(wr.Tags),
			CreatedAt:  createdAt,
			ModifiedAt: modifiedAt,
		},
	}

	category, err := ParseCategory(wr.Category)
	if err != nil {
		r.Category = Category(wr.Category)
		var unknown map[string]any
		if uerr := json.Unmarshal(wr.Fields, &unknown); uerr == nil {
			r.Unknown = unknown
		}
		return r, nil
	}
	r.Category = category

	switch category {
	case CategoryLogin:
		var wl wireLogin
		if err := json.Unmarshal(wr.Fields, &wl); err != nil {
			return nil, fmt.Errorf("item %s: invalid login fields: %w", wr.ID, err)
		}
		hist := make([]PasswordHistoryEntry, 0, len(wl.PasswordHistory))
		for _, h := range wl.PasswordHistory {
			changedAt, err := time.Parse(timeLayout, h.ChangedAt)
			if err != nil {
				return nil, fmt.Errorf("item %s: invalid password_history.changed_at: %w", wr.ID, err)
			}
			hist = append(hist, PasswordHistoryEntry{Password: h.Password, ChangedAt: changedAt})
		}
		r.Login = &LoginFields{
			Username:        wl.Username,
			Password:        wl.Password,
			URLs:            wl.URLs,
			TOTPSecret:      wl.TOTPSecret,
			Notes:           wl.Notes,
			PasswordHistory: hist,
		}
	case CategorySecureNote:
		var ws wireSecureNote
		if err := json.Unmarshal(wr.Fields, &ws); err != nil {
			return nil, fmt.Errorf("item %s: invalid secure_note fields: %w", wr.ID, err)
		}
		r.SecureNote = &SecureNoteFields{Body: ws.Body}
	case CategoryCreditCard:
		var wc wireCreditCard
		if err := json.Unmarshal(wr.Fields, &wc); err != nil {
			return nil, fmt.Errorf("item %s: invalid credit_card fields: %w", wr.ID, err)
		}
		r.CreditCard = &CreditCardFields{
			Cardholder: wc.Cardholder,
			Number:     wc.Number,
			CVV:        wc.CVV,
			Expiry:     wc.Expiry,
			Brand:      wc.Brand,
		}
	case CategoryIdentity:
		var wi wireIdentity
		if err := json.Unmarshal(wr.Fields, &wi); err != nil {
			return nil, fmt.Errorf("item %s: invalid identity fields: %w", wr.ID, err)
		}
		r.Identity = &IdentityFields{
			FullName: wi.FullName,
			Email:    wi.Email,
			Phone:    wi.Phone,
			Address:  wi.Address,
		}
	}

	return r, nil
}

// MarshalItems serializes a slice of Records as a JSON array in the
// order given. Callers that need a stable on-disk order should sort by
// ID before calling this.
func MarshalItems(items []*Record) ([]byte, error) {
	encoded := make([]json.RawMessage, 0, len(items))
	for _, r := range items {
		raw, err := MarshalRecord(r)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}
	return json.Marshal(encoded)
}

// UnmarshalItems parses a JSON array of records produced by MarshalItems.
func UnmarshalItems(data []byte) ([]*Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("item: malformed item list: %w", err)
	}
	items := make([]*Record, 0, len(raw))
	for _, r := range raw {
		rec, err := UnmarshalRecord(r)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

// SortByID returns items sorted by ID, used to give the on-disk items
// blob a deterministic byte layout independent of in-memory ordering.
func SortByID(items []*Record) []*Record {
	out := append([]*Record(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
