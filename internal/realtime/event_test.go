package realtime

import (
	"errors"
	"testing"
)

func TestDecodeCartUpdateVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, event CartUpdate)
	}{
		{
			name:    "item_added carries no fields",
			payload: `{"update_type":"item_added"}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.Type != UpdateItemAdded {
					t.Fatalf("unexpected type %q", event.Type)
				}
				if event.ItemUID != "" || event.NewQuantity != nil || event.ItemCount != nil || event.CartTotal != nil {
					t.Fatalf("item_added must carry no payload fields: %+v", event)
				}
			},
		},
		{
			name:    "item_removed carries absolute totals",
			payload: `{"update_type":"item_removed","item_uid":"item-1","item_count":2,"cart_total":"150.00"}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.Type != UpdateItemRemoved || event.ItemUID != "item-1" {
					t.Fatalf("unexpected event: %+v", event)
				}
				if event.ItemCount == nil || *event.ItemCount != 2 {
					t.Fatalf("expected item_count 2: %+v", event)
				}
				if event.CartTotal == nil || event.CartTotal.String() != "150.00" {
					t.Fatalf("expected cart_total 150.00: %+v", event)
				}
			},
		},
		{
			name:    "quantity_changed",
			payload: `{"update_type":"quantity_changed","item_uid":"item-1","new_quantity":7,"item_count":8,"cart_total":330.5}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.NewQuantity == nil || *event.NewQuantity != 7 {
					t.Fatalf("expected new_quantity 7: %+v", event)
				}
				if event.CartTotal == nil || event.CartTotal.String() != "330.50" {
					t.Fatalf("numeric cart_total must decode: %+v", event)
				}
			},
		},
		{
			name:    "moved_to_saved",
			payload: `{"update_type":"moved_to_saved","item_uid":"item-2","item_count":1,"cart_total":"30.00"}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.Type != UpdateMovedToSaved || event.ItemUID != "item-2" {
					t.Fatalf("unexpected event: %+v", event)
				}
			},
		},
		{
			name:    "price_changed",
			payload: `{"update_type":"price_changed","item_uid":"item-1"}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.Type != UpdatePriceChanged {
					t.Fatalf("unexpected type %q", event.Type)
				}
			},
		},
		{
			name:    "item_unavailable",
			payload: `{"update_type":"item_unavailable","item_uid":"item-1"}`,
			check: func(t *testing.T, event CartUpdate) {
				if event.Type != UpdateItemUnavailable {
					t.Fatalf("unexpected type %q", event.Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeCartUpdate([]byte(tt.payload))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !event.Type.Known() {
				t.Fatalf("expected known type, got %q", event.Type)
			}
			tt.check(t, event)
		})
	}
}

func TestDecodeCartUpdateUnknownTypeIsNotKnown(t *testing.T) {
	event, err := DecodeCartUpdate([]byte(`{"update_type":"coupon_applied"}`))
	if err != nil {
		t.Fatalf("unknown types must decode without error: %v", err)
	}
	if event.Type.Known() {
		t.Fatalf("coupon_applied must not be a known type")
	}
}

func TestDecodeCartUpdateInvalidPayload(t *testing.T) {
	if _, err := DecodeCartUpdate([]byte(`not-json`)); !errors.Is(err, ErrEventInvalid) {
		t.Fatalf("expected ErrEventInvalid, got %v", err)
	}
	if _, err := DecodeCartUpdate([]byte(`{}`)); !errors.Is(err, ErrEventInvalid) {
		t.Fatalf("expected ErrEventInvalid for missing update_type, got %v", err)
	}
}
