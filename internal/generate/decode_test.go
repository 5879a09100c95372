package generate

import (
	"testing"
)

type decodeTarget struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestDecodeModelJSONDirect(t *testing.T) {
	var target decodeTarget
	if err := DecodeModelJSON(`{"title":"plain","tags":["a"]}`, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target.Title != "plain" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestDecodeModelJSONStripsCodeFence(t *testing.T) {
	payload := "```json\n{\"title\":\"fenced\",\"tags\":[]}\n```"
	var target decodeTarget
	if err := DecodeModelJSON(payload, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target.Title != "fenced" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestDecodeModelJSONExtractsEmbeddedObject(t *testing.T) {
	payload := "Here is your content:\n{\"title\":\"embedded\",\"tags\":[\"x\"]}\nHope it helps!"
	var target decodeTarget
	if err := DecodeModelJSON(payload, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target.Title != "embedded" || len(target.Tags) != 1 {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestDecodeModelJSONRejectsGarbage(t *testing.T) {
	var target decodeTarget
	if err := DecodeModelJSON("not json at all", &target); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := DecodeModelJSON("   ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
