// Package catalog holds the reference tables used to turn pixel areas into
// real-world areas.
//
// Two read-only lookups are exposed:
//
//   - AverageArea: the typical real-world area (m²) of a common object class
//     recognized by the object detector. Unknown classes are reported as absent,
//     which callers treat as "not usable as a reference".
//   - DefaultArea: a flat display area (m²) per venue Category and indoor/outdoor
//     Setting, used when no reference object is usable. A missing pair is a
//     *ConfigurationError.
//
// # Immutability
//
// A Catalog is built once (Default, New or LoadFile) and never mutated. The
// constructors copy their inputs, so a Catalog may be shared by any number of
// goroutines without locking.
//
// # Override File
//
// LoadFile reads a JSON document of the form:
//
//	{
//	  "references": [{"id": 2, "name": "car", "area_m2": 8.1}],
//	  "defaults": {"indoor": {"Bar": 30}, "outdoor": {"Bar": 40}}
//	}
//
// Either section may be omitted, in which case the built-in table is kept for it.
// Every area must be strictly positive.
package catalog
