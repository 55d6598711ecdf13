// Package keys builds backing-store keys for pool objects.
package keys

import "strconv"

// Object returns the storage key of an object record: "obj:<ns>:<oid>".
func Object(ns string, oid int) string {
	return "obj:" + ns + ":" + strconv.Itoa(oid)
}

// Meta returns the storage key of pool metadata: "meta:<ns>:<name>".
func Meta(ns, name string) string {
	return "meta:" + ns + ":" + name
}
