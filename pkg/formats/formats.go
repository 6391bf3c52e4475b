// Package formats reads and writes the mesh file formats produced by
// capsulemaker.
package formats

// Note: CMSH (binary capsule mesh) is fully implemented in cmsh.go
// Note: OBJ is write-only, see obj.go
