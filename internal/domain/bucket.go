package domain

// LiveBucketName is how the live bucket is rendered in logs and listings.
const LiveBucketName = "live"

// Bucket selects the view of persisted data an operation works against.
// The zero value is the live bucket: the working view that has not been
// snapshotted. A named bucket refers to a historical snapshot.
type Bucket struct {
	snapshot string
}

// LiveBucket is the default working view.
var LiveBucket = Bucket{}

// SnapshotBucket returns the bucket for the named snapshot. An empty name
// yields the live bucket.
func SnapshotBucket(name string) Bucket {
	return Bucket{snapshot: name}
}

// ParseBucket converts a wire value into a Bucket. Both the empty string and
// LiveBucketName select the live bucket.
func ParseBucket(s string) Bucket {
	if s == LiveBucketName {
		return LiveBucket
	}
	return Bucket{snapshot: s}
}

// IsLive reports whether b is the live bucket.
func (b Bucket) IsLive() bool { return b.snapshot == "" }

// Snapshot returns the snapshot name and true, or "" and false for the live
// bucket.
func (b Bucket) Snapshot() (string, bool) {
	return b.snapshot, b.snapshot != ""
}

// Key is the value used to store the bucket. The live bucket is stored as "".
func (b Bucket) Key() string { return b.snapshot }

func (b Bucket) String() string {
	if b.IsLive() {
		return LiveBucketName
	}
	return b.snapshot
}
