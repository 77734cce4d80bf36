package model

import (
	"encoding/json"
	"fmt"
	"time"
)

func unixNanoToTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// This file gives the tagged-union interfaces (PersonRef, AssetMetadata,
// MemoryAccess) a stable wire encoding so badgerstore/pgstore can persist
// them as plain JSON blobs. Each wire form is a {kind, data} envelope;
// encoding/json can't marshal an interface field on its own, so storage
// backends call these functions explicitly rather than relying on the
// default struct tags.

type personRefWire struct {
	Kind  string `json:"kind"`
	Bytes []byte `json:"bytes,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// MarshalPersonRef renders a PersonRef to its wire form.
func MarshalPersonRef(p PersonRef) ([]byte, error) {
	switch v := p.(type) {
	case Principal:
		return json.Marshal(personRefWire{Kind: "principal", Bytes: v.Bytes})
	case Opaque:
		return json.Marshal(personRefWire{Kind: "opaque", Ref: v.Ref})
	default:
		return nil, fmt.Errorf("model: unknown PersonRef variant %T", p)
	}
}

// UnmarshalPersonRef parses a PersonRef from its wire form.
func UnmarshalPersonRef(data []byte) (PersonRef, error) {
	var w personRefWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case "principal":
		return Principal{Bytes: w.Bytes}, nil
	case "opaque":
		return Opaque{Ref: w.Ref}, nil
	default:
		return nil, fmt.Errorf("model: unknown PersonRef wire kind %q", w.Kind)
	}
}

type taggedWire struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalAssetMetadata renders an AssetMetadata to its wire form.
func MarshalAssetMetadata(m AssetMetadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedWire{Kind: string(m.Kind()), Data: data})
}

// UnmarshalAssetMetadata parses an AssetMetadata from its wire form.
func UnmarshalAssetMetadata(raw []byte) (AssetMetadata, error) {
	var w taggedWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	switch MemoryType(w.Kind) {
	case MemoryTypeImage:
		var v ImageMetadata
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case MemoryTypeVideo:
		var v VideoMetadata
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case MemoryTypeAudio:
		var v AudioMetadata
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case MemoryTypeDocument:
		var v DocumentMetadata
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case MemoryTypeNote:
		var v NoteMetadata
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("model: unknown AssetMetadata wire kind %q", w.Kind)
	}
}

type memoryAccessWire struct {
	Kind            string          `json:"kind"`
	OwnerSecureCode string          `json:"owner_secure_code,omitempty"`
	Groups          []string        `json:"groups,omitempty"`
	Individuals     []json.RawMessage `json:"individuals,omitempty"`
	AccessibleAfter *int64          `json:"accessible_after,omitempty"`
	TriggerEvent    string          `json:"trigger_event,omitempty"`
	Inner           json.RawMessage `json:"inner,omitempty"`
}

// MarshalMemoryAccess renders a MemoryAccess to its wire form, recursing
// through the single level of Scheduled/EventTriggered nesting the domain
// model allows.
func MarshalMemoryAccess(a MemoryAccess) ([]byte, error) {
	switch v := a.(type) {
	case AccessPrivate:
		return json.Marshal(memoryAccessWire{Kind: "private", OwnerSecureCode: v.OwnerSecureCode})
	case AccessPublic:
		return json.Marshal(memoryAccessWire{Kind: "public", OwnerSecureCode: v.OwnerSecureCode})
	case AccessCustom:
		individuals := make([]json.RawMessage, 0, len(v.Individuals))
		for _, p := range v.Individuals {
			b, err := MarshalPersonRef(p)
			if err != nil {
				return nil, err
			}
			individuals = append(individuals, b)
		}
		return json.Marshal(memoryAccessWire{Kind: "custom", Groups: v.Groups, Individuals: individuals, OwnerSecureCode: v.OwnerSecureCode})
	case AccessScheduled:
		inner, err := MarshalMemoryAccess(v.Access)
		if err != nil {
			return nil, err
		}
		after := v.AccessibleAfter.UnixNano()
		return json.Marshal(memoryAccessWire{Kind: "scheduled", Inner: inner, AccessibleAfter: &after, OwnerSecureCode: v.OwnerSecureCode})
	case AccessEventTriggered:
		inner, err := MarshalMemoryAccess(v.Access)
		if err != nil {
			return nil, err
		}
		return json.Marshal(memoryAccessWire{Kind: "event_triggered", Inner: inner, TriggerEvent: v.TriggerEvent, OwnerSecureCode: v.OwnerSecureCode})
	default:
		return nil, fmt.Errorf("model: unknown MemoryAccess variant %T", a)
	}
}

// UnmarshalMemoryAccess parses a MemoryAccess from its wire form.
func UnmarshalMemoryAccess(raw []byte) (MemoryAccess, error) {
	var w memoryAccessWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case "private":
		return AccessPrivate{OwnerSecureCode: w.OwnerSecureCode}, nil
	case "public":
		return AccessPublic{OwnerSecureCode: w.OwnerSecureCode}, nil
	case "custom":
		individuals := make([]PersonRef, 0, len(w.Individuals))
		for _, raw := range w.Individuals {
			p, err := UnmarshalPersonRef(raw)
			if err != nil {
				return nil, err
			}
			individuals = append(individuals, p)
		}
		return AccessCustom{Groups: w.Groups, Individuals: individuals, OwnerSecureCode: w.OwnerSecureCode}, nil
	case "scheduled":
		inner, err := UnmarshalMemoryAccess(w.Inner)
		if err != nil {
			return nil, err
		}
		if w.AccessibleAfter == nil {
			return nil, fmt.Errorf("model: scheduled access missing accessible_after")
		}
		return AccessScheduled{Access: inner, AccessibleAfter: unixNanoToTime(*w.AccessibleAfter), OwnerSecureCode: w.OwnerSecureCode}, nil
	case "event_triggered":
		inner, err := UnmarshalMemoryAccess(w.Inner)
		if err != nil {
			return nil, err
		}
		return AccessEventTriggered{Access: inner, TriggerEvent: w.TriggerEvent, OwnerSecureCode: w.OwnerSecureCode}, nil
	default:
		return nil, fmt.Errorf("model: unknown MemoryAccess wire kind %q", w.Kind)
	}
}
