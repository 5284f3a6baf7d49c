// Package forge defines the core content-addressed object vocabulary
// shared by every other package: Entry, the tracking-level tree node;
// Object, the graph-level tagged variant (Blob/Tree/Manifest/Layer/
// Platform/Mask); and Manifest, a rooted Entry tree paired with its tree
// cache. Every Object has a canonical, deterministic byte encoding and a
// digest derived from it; decoding dispatches on a Kind byte through a
// small registry, the same shape manifest.UnmarshalFunc uses to dispatch
// on media type.
package forge
