/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile is the on-wire .class file format: constant pool,
// fields, methods, attributes.
package classfile

// Constant pool tags, per the JVM spec (§4.4).
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClassRef           = 7
	TagStringConst        = 8
	TagFieldRef           = 9
	TagMethodRef          = 10
	TagInterfaceMethodRef = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
)

// CpEntry is a slim (tag, slot) pair: Slot indexes into the type-specific
// slice below.
type CpEntry struct {
	Tag  uint8
	Slot int
}

type MethodRefEntry struct {
	ClassIndex  int
	NameAndType int
}

type FieldRefEntry struct {
	ClassIndex  int
	NameAndType int
}

type InterfaceRefEntry struct {
	ClassIndex  int
	NameAndType int
}

type NameAndTypeEntry struct {
	NameIndex int
	DescIndex int
}

type DynamicEntry struct {
	BootstrapIndex int
	NameAndType    int
}

type MethodHandleEntry struct {
	RefKind  uint8
	RefIndex int
}

// CPool is the parsed constant pool: CpIndex is 1-indexed (slot 0 unused,
// matching the JVM spec's own 1-indexing), and every other slice holds the
// type-specific payload that CpIndex[i].Slot points into.
type CPool struct {
	CpIndex []CpEntry

	Utf8Refs       []string
	IntConsts      []int32
	LongConsts     []int64
	Floats         []float32
	Doubles        []float64
	ClassRefs      []uint32 // value: index into Utf8Refs holding the class name
	StringRefs     []int    // value: index into Utf8Refs
	MethodRefs     []MethodRefEntry
	FieldRefs      []FieldRefEntry
	InterfaceRefs  []InterfaceRefEntry
	NameAndTypes   []NameAndTypeEntry
	MethodHandles  []MethodHandleEntry
	MethodTypes    []uint16
	Dynamics       []DynamicEntry
	InvokeDynamics []DynamicEntry
}

// Attr is a raw class/field/method/code attribute: its name (resolved
// eagerly, since it drives dispatch) plus undecoded payload bytes.
type Attr struct {
	Name string
	Data []byte
}

// ExceptionHandler is one entry of a Code attribute's exception table.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType int // constant-pool index of a ClassRef, or 0 for catch-any
}

// CodeAttr is the parsed Code attribute of a method.
type CodeAttr struct {
	MaxStack   int
	MaxLocals  int
	Code       []byte
	Exceptions []ExceptionHandler
	Attributes []Attr // sub-attributes, notably StackMapTable
}

// FieldInfo is one declared field.
type FieldInfo struct {
	AccessFlags int
	Name        string
	Descriptor  string
	ConstValue  interface{} // non-nil iff a ConstantValue attribute was present
	Attributes  []Attr
}

// MethodInfo is one declared method (including constructors).
type MethodInfo struct {
	AccessFlags int
	Name        string
	Descriptor  string
	Code        *CodeAttr // nil for abstract/native methods
	Attributes  []Attr
}

// BootstrapMethod is one entry of the class-level BootstrapMethods
// attribute, resolved by invokedynamic call sites.
type BootstrapMethod struct {
	MethodRef int // CP index of a MethodHandle
	Arguments []int
}

// ClassFile is the fully parsed structural view of one .class file.
type ClassFile struct {
	MajorVersion int
	MinorVersion int

	CP CPool

	AccessFlags int
	ThisClass   int // CP index of a ClassRef
	SuperClass  int // CP index of a ClassRef, 0 for java/lang/Object

	Interfaces []int // CP indices of ClassRefs

	Fields  []FieldInfo
	Methods []MethodInfo

	BootstrapMethods []BootstrapMethod

	Attributes []Attr
	SourceFile string
}

// Access flag bits (JVM spec table 4.1-A, subset rho's interpreter cares
// about).
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	AccNative     = 0x0100
)

// GetUtf8 resolves a CP index known to hold a Utf8 entry.
func (cf *ClassFile) GetUtf8(index int) (string, bool) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return "", false
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagUtf8 {
		return "", false
	}
	return cf.CP.Utf8Refs[e.Slot], true
}

// GetClassName resolves a CP index known to hold a ClassRef, returning its
// name in internal (slash) form.
func (cf *ClassFile) GetClassName(index int) (string, bool) {
	if index <= 0 || index >= len(cf.CP.CpIndex) {
		return "", false
	}
	e := cf.CP.CpIndex[index]
	if e.Tag != TagClassRef {
		return "", false
	}
	nameIdx := int(cf.CP.ClassRefs[e.Slot])
	return cf.GetUtf8(nameIdx)
}

// ThisClassName is a convenience wrapper around GetClassName(ThisClass).
func (cf *ClassFile) ThisClassName() (string, bool) { return cf.GetClassName(cf.ThisClass) }

// SuperClassName returns ("", false) when SuperClass is 0 (java/lang/Object
// has no superclass).
func (cf *ClassFile) SuperClassName() (string, bool) {
	if cf.SuperClass == 0 {
		return "", false
	}
	return cf.GetClassName(cf.SuperClass)
}

// FindMethod finds a method by exact name+descriptor match.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// AttrNamed returns the Code sub-attribute named "name" within code's own
// attribute list (e.g. "StackMapTable"), or nil.
func (code *CodeAttr) AttrNamed(name string) *Attr {
	for i := range code.Attributes {
		if code.Attributes[i].Name == name {
			return &code.Attributes[i]
		}
	}
	return nil
}
