// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"testing"

	"google.golang.org/genai"
)

func TestToGenaiSchema(t *testing.T) {
	schema := toGenaiSchema(map[string]any{
		"type":        "object",
		"description": "a collaborator",
		"properties": map[string]any{
			"name":            map[string]any{"type": "string", "description": "full name"},
			"alignment_score": map[string]any{"type": "integer"},
			"key_publications": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"name", "alignment_score"},
	})

	if schema.Type != genai.TypeObject {
		t.Errorf("Type = %v, want object", schema.Type)
	}
	if schema.Description != "a collaborator" {
		t.Errorf("Description = %q", schema.Description)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(schema.Properties))
	}
	if schema.Properties["name"].Type != genai.TypeString {
		t.Errorf("name type = %v, want string", schema.Properties["name"].Type)
	}
	if schema.Properties["alignment_score"].Type != genai.TypeInteger {
		t.Errorf("score type = %v, want integer", schema.Properties["alignment_score"].Type)
	}
	pubs := schema.Properties["key_publications"]
	if pubs.Type != genai.TypeArray || pubs.Items == nil || pubs.Items.Type != genai.TypeString {
		t.Errorf("key_publications should be array of string, got %+v", pubs)
	}
	if len(schema.Required) != 2 {
		t.Errorf("Required = %v, want 2 entries", schema.Required)
	}
}

func TestToGenaiSchemaRequiredFromAnySlice(t *testing.T) {
	// JSON-decoded schemas carry required as []any.
	schema := toGenaiSchema(map[string]any{
		"type":     "object",
		"required": []any{"name", "country"},
	})
	if len(schema.Required) != 2 || schema.Required[0] != "name" {
		t.Errorf("Required = %v", schema.Required)
	}
}

func TestToGenaiSchemaNil(t *testing.T) {
	schema := toGenaiSchema(nil)
	if schema.Type != genai.TypeObject {
		t.Errorf("nil schema should default to object, got %v", schema.Type)
	}
}

func TestGenaiTypeFallback(t *testing.T) {
	if genaiType("unknown-thing") != genai.TypeString {
		t.Error("unknown JSON-schema type should fall back to string")
	}
}
