package music

// Library is the durable set/variant metadata store. A single process-wide
// instance owns it; mutations are serialized by the implementation and every
// mutation is followed by a best-effort flush to disk.
type Library interface {
	// Get returns a copy of the stored set, if any.
	Get(setID string) (*Set, bool)
	// Songs returns all stored sets normalized to the canonical ordered
	// shape, newest first.
	Songs() []Song
	// CachedAsset reports the readable on-disk asset for a variant. It
	// returns false when the variant was never downloaded or its file has
	// gone missing.
	CachedAsset(setID, variantID string) (string, bool)
	// Merge applies a metadata-only refresh from a remote descriptor,
	// creating the set when absent.
	Merge(d *SetDescriptor)
	// RecordDownload merges the descriptor and attaches the transcoded
	// asset to the set's variants, marking them downloaded.
	RecordDownload(d *SetDescriptor, assetPath string, multipleAudios bool)
	// MarkAssetMissing flips any variant referencing the given asset path
	// back to not-downloaded. Used when files vanish out-of-band.
	MarkAssetMissing(assetPath string)
	// Delete removes a set and its backing asset file.
	Delete(setID string) error
	// Subscribe returns a channel that receives a signal after every
	// committed mutation. Slow subscribers miss signals, they are never
	// blocked on.
	Subscribe() <-chan struct{}
	// Ready is closed once the persisted file has been loaded.
	Ready() <-chan struct{}
}
