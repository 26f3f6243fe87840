package ddc

import "unsafe"

// walkRefs collects the entries of a native reference array. The array has no
// length; it ends at the first null entry.
func walkRefs(first *uintptr) []DisplayRef {
	if first == nil {
		return nil
	}

	var refs []DisplayRef
	for p := unsafe.Pointer(first); ; p = unsafe.Add(p, unsafe.Sizeof(uintptr(0))) {
		v := *(*uintptr)(p)
		if v == 0 {
			break
		}
		refs = append(refs, MakeDisplayRef(v))
	}

	return refs
}
