/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package fieldid

import "testing"

func TestEncodeDecodeFieldRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		classID    uint32
		fieldIndex uint16
	}{
		{"zero class, zero field", 0, 0},
		{"zero class, nonzero field", 0, 7},
		{"large class id", 0xABCDEF, 3},
		{"field index one below the reserved sentinel", 1, FieldIndexMax - 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			encoded := EncodeField(c.classID, c.fieldIndex)
			if encoded == 0 {
				t.Fatalf("EncodeField(%d, %d) produced the reserved null encoding", c.classID, c.fieldIndex)
			}
			gotClassID, gotFieldIndex, ok := DecodeField(encoded)
			if !ok {
				t.Fatalf("DecodeField(%d) ok = false, want true", encoded)
			}
			if gotClassID != c.classID || gotFieldIndex != c.fieldIndex {
				t.Errorf("DecodeField(EncodeField(%d, %d)) = (%d, %d), want (%d, %d)",
					c.classID, c.fieldIndex, gotClassID, gotFieldIndex, c.classID, c.fieldIndex)
			}
		})
	}
}

func TestDecodeFieldZeroIsTheNullSentinel(t *testing.T) {
	classID, fieldIndex, ok := DecodeField(0)
	if ok {
		t.Fatalf("DecodeField(0) ok = true, want false (classID=%d fieldIndex=%d)", classID, fieldIndex)
	}
}

func TestEncodeFieldRejectsReservedFieldIndex(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("EncodeField did not panic on the reserved field index 0xFFFF")
		}
	}()
	EncodeField(0, FieldIndexMax)
}

func TestComposeDecomposeMethodRoundTrip(t *testing.T) {
	cases := []struct {
		name        string
		classID     uint32
		methodIndex uint32
	}{
		{"zero class, zero method", 0, 0},
		{"zero class, nonzero method", 0, 12},
		{"large class id and method index", 0x12345, 0x9999},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id := ComposeMethod(c.classID, c.methodIndex)
			if id.IsArrayClone() {
				t.Fatalf("ComposeMethod(%d, %d).IsArrayClone() = true, want false", c.classID, c.methodIndex)
			}
			gotClassID, gotMethodIndex := id.Decompose()
			if gotClassID != c.classID || gotMethodIndex != c.methodIndex {
				t.Errorf("Decompose(ComposeMethod(%d, %d)) = (%d, %d), want (%d, %d)",
					c.classID, c.methodIndex, gotClassID, gotMethodIndex, c.classID, c.methodIndex)
			}
		})
	}
}

func TestArrayCloneRoundTrip(t *testing.T) {
	const classID uint32 = 0x4242

	id := ArrayClone(classID)
	if !id.IsArrayClone() {
		t.Fatal("ArrayClone(classID).IsArrayClone() = false, want true")
	}
	gotClassID, gotMethodIndex := id.Decompose()
	if gotClassID != classID {
		t.Errorf("ArrayClone(%d).Decompose() classID = %d, want %d", classID, gotClassID, classID)
	}
	if gotMethodIndex != 0 {
		t.Errorf("ArrayClone(%d).Decompose() methodIndex = %d, want 0", classID, gotMethodIndex)
	}
}

func TestArrayCloneAndComposeMethodDoNotCollide(t *testing.T) {
	const classID uint32 = 7

	clone := ArrayClone(classID)
	ordinary := ComposeMethod(classID, 0)
	if clone == ordinary {
		t.Fatal("ArrayClone and ComposeMethod with methodIndex 0 produced the same MethodId")
	}
	if ordinary.IsArrayClone() {
		t.Fatal("ComposeMethod's result reports IsArrayClone() = true")
	}
}
