package storage

// ManifestJSONSchema documents the shape of the build manifest the generator
// writes next to the published tree. External tooling (deploy hooks, cache
// purgers) can validate manifests against this schema before acting on them;
// the engine itself validates before trusting a manifest for cleanup.
const ManifestJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "BuildManifest",
  "type": "object",
  "required": ["version", "generated_at", "entries"],
  "properties": {
    "version": {
      "type": "integer",
      "minimum": 1,
      "description": "Manifest format version"
    },
    "generated_at": {
      "type": "string",
      "description": "RFC 3339 timestamp of the build that produced the manifest"
    },
    "build_id": {
      "type": "string",
      "description": "Identifier of the build run"
    },
    "site": {
      "type": "string",
      "description": "Site title at the time of the build"
    },
    "fingerprint": {
      "type": "string",
      "description": "Hash of the build environment (base URL, theme, layouts); incremental reuse requires a match"
    },
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "category"],
        "properties": {
          "path": {
            "type": "string",
            "description": "Output path relative to the publish root"
          },
          "source": {
            "type": "string",
            "description": "Source document the artifact was rendered from"
          },
          "layout": {
            "type": "string"
          },
          "permalink": {
            "type": "string"
          },
          "checksum": {
            "type": "string",
            "description": "Hex encoded SHA-256 of the artifact content"
          },
          "source_checksum": {
            "type": "string",
            "description": "Hex encoded SHA-256 of the source the artifact was derived from"
          },
          "size": {
            "type": "integer",
            "minimum": 0
          },
          "category": {
            "type": "string",
            "description": "Artifact category (page, asset, sitemap, robots, feed, manifest, document)"
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}
`
