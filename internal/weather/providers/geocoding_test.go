package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/i474232898/snowfall-check/internal/upstream"
)

func TestOpenMeteoGeocoder_Search(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("name") != "Denver" {
			t.Errorf("name = %q", q.Get("name"))
		}
		if q.Get("count") != "20" {
			t.Errorf("count = %q", q.Get("count"))
		}
		if q.Get("language") != "en" {
			t.Errorf("language = %q", q.Get("language"))
		}
		w.Write([]byte(`{"results":[
			{"name":"Denver","latitude":39.73915,"longitude":-104.9847,"country":"United States","admin1":"Colorado"},
			{"name":"Denver","latitude":40.2334,"longitude":-76.1374,"country":"United States","admin1":"Pennsylvania"}
		]}`))
	})

	g := NewOpenMeteoGeocoder(mockClient(handler), "https://geo.test/v1/search")
	places, err := g.Search(context.Background(), "Denver", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("len(places) = %d, want 2", len(places))
	}
	if places[1].Admin1 != "Pennsylvania" || places[0].Latitude != 39.73915 {
		t.Errorf("unexpected places: %+v", places)
	}
}

func TestOpenMeteoGeocoder_NoResults(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generationtime_ms": 0.5}`))
	})

	g := NewOpenMeteoGeocoder(mockClient(handler), "https://geo.test/v1/search")
	places, err := g.Search(context.Background(), "Nowhereville", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("expected no places, got %+v", places)
	}
}

func TestOpenMeteoGeocoder_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	g := NewOpenMeteoGeocoder(mockClient(handler), "https://geo.test/v1/search", noRetry)
	_, err := g.Search(context.Background(), "Denver", 1)
	if upstream.StatusCode(err) != 500 {
		t.Fatalf("expected upstream 500, got %v", err)
	}
}
