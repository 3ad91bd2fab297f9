// Package markdown implements the body-rendering stage of the press
// pipeline: filesystem discovery of source documents, goldmark-based
// conversion of Markdown bodies into HTML, and normalisation of foreign
// document trees into the canonical front matter layout.
package markdown
