package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BenefitLine is one benefit item of an upstream response. The fields the
// service reasons about are decoded; the original JSON is kept and written
// back unchanged so unknown upstream fields pass through.
type BenefitLine struct {
	Service           string   `json:"service,omitempty"`
	ServiceTypeCode   string   `json:"serviceTypeCode,omitempty"`
	ServiceTypeCodes  []string `json:"serviceTypeCodes,omitempty"`
	Status            string   `json:"status,omitempty"`
	PercentageCovered string   `json:"percentageCovered,omitempty"`
	CopayAmount       string   `json:"copayAmount,omitempty"`

	raw json.RawMessage
}

// HasServiceType reports whether the line carries the given service-type code
func (l BenefitLine) HasServiceType(code string) bool {
	if strings.TrimSpace(l.ServiceTypeCode) == code {
		return true
	}
	for _, c := range l.ServiceTypeCodes {
		if strings.TrimSpace(c) == code {
			return true
		}
	}
	return false
}

// MarshalJSON writes the upstream JSON when the line was decoded from one
func (l BenefitLine) MarshalJSON() ([]byte, error) {
	if len(l.raw) > 0 {
		return l.raw, nil
	}
	type plain BenefitLine
	return json.Marshal(plain(l))
}

// UnmarshalJSON decodes known fields leniently; numbers are accepted where
// strings are expected and other shapes are ignored.
func (l *BenefitLine) UnmarshalJSON(data []byte) error {
	*l = BenefitLine{raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// not an object; keep it opaque
		return nil
	}

	l.Service = stringField(fields, "service")
	l.ServiceTypeCode = stringField(fields, "serviceTypeCode")
	l.Status = stringField(fields, "status")
	l.PercentageCovered = stringField(fields, "percentageCovered")
	l.CopayAmount = stringField(fields, "copayAmount")
	if raw, ok := fields["serviceTypeCodes"]; ok {
		var codes []json.RawMessage
		if err := json.Unmarshal(raw, &codes); err == nil {
			for _, c := range codes {
				if s, ok := scalarString(c); ok {
					l.ServiceTypeCodes = append(l.ServiceTypeCodes, s)
				}
			}
		}
	}
	return nil
}

// BenefitsResult is a parsed upstream eligibility response
type BenefitsResult struct {
	Benefits []BenefitLine

	// benefitsRaw is the benefit array as received; nil when the response had none
	benefitsRaw json.RawMessage
	raw         json.RawMessage
}

// NewBenefitsResult builds a result from local data
func NewBenefitsResult(lines []BenefitLine) *BenefitsResult {
	return &BenefitsResult{Benefits: lines}
}

// ParseBenefitsResult decodes an upstream response body. The body must be a
// JSON object. Benefit lines are read from "benefits", or from the Stedi
// native "benefitsInformation" array when "benefits" is absent.
func ParseBenefitsResult(data []byte) (*BenefitsResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("benefits response is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("benefits response is null")
	}

	result := &BenefitsResult{raw: append(json.RawMessage(nil), data...)}

	arr, ok := fields["benefits"]
	if !ok || isNull(arr) {
		arr, ok = fields["benefitsInformation"]
	}
	if !ok || isNull(arr) {
		return result, nil
	}

	result.benefitsRaw = arr
	var lines []BenefitLine
	if err := json.Unmarshal(arr, &lines); err == nil {
		result.Benefits = lines
	}
	return result, nil
}

// HasBenefits reports whether the response carried a benefit array at all
func (r *BenefitsResult) HasBenefits() bool {
	return r != nil && (r.benefitsRaw != nil || r.Benefits != nil)
}

// BenefitsPayload returns the benefit array as JSON, or nil when the response had none
func (r *BenefitsResult) BenefitsPayload() json.RawMessage {
	if r == nil {
		return nil
	}
	if r.benefitsRaw != nil {
		return r.benefitsRaw
	}
	if r.Benefits == nil {
		return nil
	}
	data, err := json.Marshal(r.Benefits)
	if err != nil {
		return nil
	}
	return data
}

// MarshalJSON writes the upstream response verbatim, or {"benefits": [...]}
// for locally built results.
func (r BenefitsResult) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	lines := r.Benefits
	if lines == nil {
		lines = []BenefitLine{}
	}
	return json.Marshal(struct {
		Benefits []BenefitLine `json:"benefits"`
	}{Benefits: lines})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *BenefitsResult) UnmarshalJSON(data []byte) error {
	parsed, err := ParseBenefitsResult(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// BenefitKind tags the variants of Benefit
type BenefitKind int

const (
	// BenefitNone means no benefit data was obtainable
	BenefitNone BenefitKind = iota
	// BenefitCoveredByGeneral means the general result already covers the code
	BenefitCoveredByGeneral
	// BenefitPayload holds the raw per-code benefit payload
	BenefitPayload
)

// CoveredByGeneral is the JSON form of a BenefitCoveredByGeneral benefit
const CoveredByGeneral = "COVERED_BY_GENERAL"

// Benefit is the per-procedure benefit value
type Benefit struct {
	Kind    BenefitKind
	Payload json.RawMessage
}

// CoveredBenefit returns the covered-by-general sentinel
func CoveredBenefit() Benefit {
	return Benefit{Kind: BenefitCoveredByGeneral}
}

// PayloadBenefit wraps a raw payload; a nil or null payload yields BenefitNone
func PayloadBenefit(payload json.RawMessage) Benefit {
	if payload == nil || isNull(payload) {
		return Benefit{Kind: BenefitNone}
	}
	return Benefit{Kind: BenefitPayload, Payload: payload}
}

// IsCoveredByGeneral reports whether b is the sentinel
func (b Benefit) IsCoveredByGeneral() bool {
	return b.Kind == BenefitCoveredByGeneral
}

// MarshalJSON implements json.Marshaler
func (b Benefit) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BenefitCoveredByGeneral:
		return json.Marshal(CoveredByGeneral)
	case BenefitPayload:
		if len(b.Payload) > 0 {
			return b.Payload, nil
		}
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Benefit) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*b = Benefit{Kind: BenefitNone}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == CoveredByGeneral {
		*b = CoveredBenefit()
		return nil
	}
	*b = Benefit{Kind: BenefitPayload, Payload: append(json.RawMessage(nil), data...)}
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	s, _ := scalarString(raw)
	return s
}

func scalarString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
