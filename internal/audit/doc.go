// Package audit writes an append-only JSONL record of every maintenance
// action taken through the container, with size-based rotation.
package audit
