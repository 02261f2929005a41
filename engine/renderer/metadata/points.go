package metadata

/** @brief How a point cache is produced. */
type PointCacheKind string

const (
	PointCacheKindGrid    PointCacheKind = "grid"
	PointCacheKindScatter PointCacheKind = "scatter"
	PointCacheKindFile    PointCacheKind = "file"
)

/** @brief The size of one cached point (float32 xyz) in bytes. */
const PointSize uint32 = 12

/**
 * @brief Describes the spawn point sequence fed to the instancer. Points lie
 * on the xz ground plane unless loaded from a file.
 */
type PointCacheConfig struct {
	Kind PointCacheKind `toml:"kind" yaml:"kind"`
	/** @brief Number of points to generate. Zero means the instance total. */
	Count int `toml:"count" yaml:"count"`
	/** @brief Side length of the square the points are spread over. */
	Extent float32 `toml:"extent" yaml:"extent"`
	/** @brief Seed of the scatter generator. */
	Seed uint64 `toml:"seed" yaml:"seed"`
	/** @brief Point cache file, for the file kind. */
	Path string `toml:"path" yaml:"path"`
}
