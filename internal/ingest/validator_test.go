package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/ecomsearch/product-index-pipeline/internal/corpus"
	apperrors "github.com/ecomsearch/product-index-pipeline/pkg/errors"
)

func validEvent() *PageEvent {
	return &PageEvent{
		URL:         "https://shop.test/product/1",
		Title:       "Red Shoes",
		Description: "Comfortable red shoes.",
		ProductReviews: []corpus.Review{
			{Rating: 4.5, Date: "2024-01-01"},
		},
	}
}

func TestValidatePageEventAccepts(t *testing.T) {
	if err := ValidatePageEvent(validEvent()); err != nil {
		t.Fatalf("ValidatePageEvent() = %v, want nil", err)
	}
}

func TestValidatePageEventRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PageEvent)
		field  string
	}{
		{
			name:   "missing url",
			mutate: func(ev *PageEvent) { ev.URL = "  " },
			field:  "url",
		},
		{
			name:   "relative url",
			mutate: func(ev *PageEvent) { ev.URL = "/product/1" },
			field:  "url",
		},
		{
			name:   "url without host",
			mutate: func(ev *PageEvent) { ev.URL = "https://" },
			field:  "url",
		},
		{
			name:   "oversized url",
			mutate: func(ev *PageEvent) { ev.URL = "https://shop.test/" + strings.Repeat("p", maxURLLength) },
			field:  "url",
		},
		{
			name:   "oversized title",
			mutate: func(ev *PageEvent) { ev.Title = strings.Repeat("t", maxTitleLength+1) },
			field:  "title",
		},
		{
			name:   "rating below range",
			mutate: func(ev *PageEvent) { ev.ProductReviews = []corpus.Review{{Rating: -1}} },
			field:  "product_reviews",
		},
		{
			name:   "rating above range",
			mutate: func(ev *PageEvent) { ev.ProductReviews = []corpus.Review{{Rating: 5.5}} },
			field:  "product_reviews",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := validEvent()
			tt.mutate(ev)
			err := ValidatePageEvent(ev)
			if err == nil {
				t.Fatal("ValidatePageEvent() = nil, want error")
			}
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("error %v does not wrap ErrInvalidInput", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("Fields = %v, want entry for %q", verr.Fields, tt.field)
			}
		})
	}
}

func TestValidatePageEventCollectsAllFields(t *testing.T) {
	ev := &PageEvent{
		URL:            "not-a-url",
		Title:          strings.Repeat("t", maxTitleLength+1),
		ProductReviews: []corpus.Review{{Rating: 9}},
	}
	err := ValidatePageEvent(ev)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %T is not *ValidationError", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("collected %d field errors, want 3: %v", len(verr.Fields), verr.Fields)
	}
}

func TestPageEventRecord(t *testing.T) {
	ev := validEvent()
	rec := ev.Record()
	if rec.URL != ev.URL || rec.Title != ev.Title || rec.Description != ev.Description {
		t.Errorf("Record() = %+v", rec)
	}
	if len(rec.ProductReviews) != 1 || rec.ProductReviews[0].Rating != 4.5 {
		t.Errorf("Record() reviews = %+v", rec.ProductReviews)
	}
}
