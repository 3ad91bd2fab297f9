// Package layouts loads named page layouts from disk and renders documents
// through them. Layouts are html/template files; shared fragments live in a
// partials directory and are available to every layout. A render against a
// layout name that was never registered fails loudly, there is no fallback
// layout.
package layouts
