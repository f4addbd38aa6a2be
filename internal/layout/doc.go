// Package layout computes the near-square tiling used to render a stack of
// equally sized square panels into a bounding box, and rasterizes panel
// stacks into grayscale composites.
//
// Layout is a pure function of (D, W, H, spacing); resizing simply
// recomputes it. The same grid serves both general panel rendering and the
// inspector's cross-section display, so the tiling rules live here once.
package layout
