/*
 * rho - a small JVM core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classnames

import (
	"testing"

	"github.com/jacobin-run/rho/types"
)

func TestObjectIsIdZero(t *testing.T) {
	r := NewRegistry()
	if r.ObjectId() != 0 {
		t.Errorf("expected object id 0, got %d", r.ObjectId())
	}
	name, info, err := r.NameFromId(0)
	if err != nil || name != "java/lang/Object" || !info.HasClassFile {
		t.Errorf("unexpected Object record: %q %+v %v", name, info, err)
	}
}

func TestInterningIsStable(t *testing.T) {
	r := NewRegistry()
	id1 := r.IdFromBytes([]byte("java/lang/String"))
	id2 := r.IdFromBytes([]byte("java/lang/String"))
	if id1 != id2 {
		t.Errorf("expected same id for repeated intern, got %d and %d", id1, id2)
	}
}

func TestRoundTripNameFromId(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"java/lang/String", "java/util/ArrayList", "[I", "[[Ljava/lang/String;"} {
		id := r.IdFromBytes([]byte(name))
		got, _, err := r.NameFromId(id)
		if err != nil || got != name {
			t.Errorf("name_from_id(id_from_bytes(%q)) = (%q, %v), want (%q, nil)", name, got, err, name)
		}
	}
}

func TestIterFormMatchesContiguousForm(t *testing.T) {
	r := NewRegistry()
	id1 := r.IdFromIter([]string{"java", "lang", "String"})
	id2 := r.IdFromBytes([]byte("java/lang/String"))
	if id1 != id2 {
		t.Errorf("iterator form produced a different id than the contiguous form: %d vs %d", id1, id2)
	}
}

func TestArrayOfPrimitive(t *testing.T) {
	r := NewRegistry()
	id := r.IdForArrayOfPrimitive(types.Int)
	name, info, err := r.NameFromId(id)
	if err != nil || name != "[I" || !info.IsArray {
		t.Errorf("expected [I array, got %q %+v %v", name, info, err)
	}
}

func TestArrayLevelOfClass(t *testing.T) {
	r := NewRegistry()
	str := r.IdFromBytes([]byte("java/lang/String"))
	id, err := r.IdForArrayLevel(2, str)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, info, _ := r.NameFromId(id)
	if name != "[[Ljava/lang/String;" || !info.IsArray {
		t.Errorf("expected [[Ljava/lang/String;, got %q %+v", name, info)
	}
}

func TestArrayLevelOfArray(t *testing.T) {
	r := NewRegistry()
	intArr := r.IdForArrayOfPrimitive(types.Int)
	id, err := r.IdForArrayLevel(1, intArr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, _, _ := r.NameFromId(id)
	if name != "[[I" {
		t.Errorf("expected [[I, got %q", name)
	}
}

func TestBadIdFails(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.NameFromId(999); err == nil {
		t.Error("expected BadClassId error for unregistered id")
	}
}

func TestIdsAreMonotonic(t *testing.T) {
	r := NewRegistry()
	prev := r.ObjectId()
	for _, n := range []string{"a/B", "c/D", "e/F"} {
		id := r.IdFromBytes([]byte(n))
		if id <= prev {
			t.Errorf("expected strictly increasing ids, got %d after %d", id, prev)
		}
		prev = id
	}
}

func TestInitAnonymousThenRename(t *testing.T) {
	r := NewRegistry()
	id := r.InitAnonymousId(true)
	_, info, err := r.NameFromId(id)
	if err != nil || !info.IsAnonymous {
		t.Fatalf("expected anonymous info, got %+v %v", info, err)
	}
	if !r.Rename(id, "Main$1") {
		t.Fatal("rename should succeed for a fresh placeholder")
	}
	name, _, _ := r.NameFromId(id)
	if name != "Main$1" {
		t.Errorf("expected renamed class Main$1, got %q", name)
	}
}
