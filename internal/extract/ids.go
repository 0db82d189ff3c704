package extract

// Identifier separators. Instance members and members of plain objects and
// interfaces use SepInstance; statics, signature parameters and type
// parameters use SepStatic.
const (
	SepInstance = "."
	SepStatic   = "^"
)

// ChildID returns the id of name nested under parent. Top-level items have
// an empty parent and are identified by their bare name.
func ChildID(parent, sep, name string) string {
	if parent == "" {
		return name
	}
	return parent + sep + name
}

// ConstructorID is the id of a class's construct signature.
func ConstructorID(classID string) string {
	return ChildID(classID, SepStatic, "constructor")
}

// indexID is the id context of an index signature's value type.
func indexID(id string) string {
	return id + SepStatic + "0"
}
