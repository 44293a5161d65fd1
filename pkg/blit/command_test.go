package blit

import (
	"strings"
	"testing"

	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

func TestCommandBufferRecordsInOrder(t *testing.T) {
	mat := NewMaterial("Test/Mat", Stage{Name: "noop"})

	cb := NewCommandBuffer("record")
	cb.BeginSample("scope")
	cb.GetTemporary("_Tmp", fxbuf.NewDescriptor(4, 4))
	cb.BlitStage(CameraTarget, "_Tmp", mat, 0)
	cb.Blit("_Tmp", CameraTarget)
	cb.CopyTexture(CameraTarget, "_Tmp")
	cb.Release("_Tmp")
	cb.EndSample("scope")

	want := []string{
		"BeginSample(scope)",
		"GetTemporary(_Tmp, 4x4 RGBA32F depth0)",
		"Blit(_CameraColorTarget -> _Tmp, Test/Mat#0)",
		"Blit(_Tmp -> _CameraColorTarget)",
		"CopyTexture(_CameraColorTarget -> _Tmp)",
		"Release(_Tmp)",
		"EndSample(scope)",
	}

	cmds := cb.Commands()
	if len(cmds) != len(want) {
		t.Fatalf("recorded %d commands, want %d:\n%s", len(cmds), len(want), cb)
	}
	for i := range want {
		if got := cmds[i].String(); got != want[i] {
			t.Errorf("cmd[%d] = %q, want %q", i, got, want[i])
		}
	}
	if !strings.Contains(cb.String(), `CommandBuffer "record"`) {
		t.Errorf("String() = %q", cb.String())
	}
}

func TestCommandBufferPool(t *testing.T) {
	cb := GetCommandBuffer("first")
	cb.Release("_X")
	ReleaseCommandBuffer(cb)

	cb2 := GetCommandBuffer("second")
	defer ReleaseCommandBuffer(cb2)
	if cb2.Len() != 0 {
		t.Errorf("pooled command buffer has %d commands, want 0", cb2.Len())
	}
	if cb2.Name != "second" {
		t.Errorf("Name = %q, want second", cb2.Name)
	}

	ReleaseCommandBuffer(nil)
}

func TestMaterialStageLookup(t *testing.T) {
	mat := NewMaterial("Test/Mat", Stage{Name: "a"}, Stage{Name: "b"})
	mat.SetFloat("_F", 2)

	if mat.NumStages() != 2 {
		t.Errorf("NumStages() = %d, want 2", mat.NumStages())
	}
	if s, err := mat.Stage(1); err != nil || s.Name != "b" {
		t.Errorf("Stage(1) = %v, %v", s, err)
	}
	for _, i := range []int{-1, 2} {
		if _, err := mat.Stage(i); err == nil {
			t.Errorf("Stage(%d) succeeded, want error", i)
		}
	}
	if mat.Float("_F") != 2 || mat.Float("_Missing") != 0 {
		t.Errorf("Float lookups wrong: %s", mat)
	}
}
