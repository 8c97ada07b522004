package zmakore

import (
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator("protoc --cpp_out=${2} ${1}")
	cmd := testerr.Shall1(g.Generate("api.proto", "gen")).BeNil(t)
	if cmd != "protoc --cpp_out=gen api.proto" {
		t.Errorf("generated '%s'", cmd)
	}
	t.Run("repeated placeholder", func(t *testing.T) {
		g := NewGenerator("cp ${1}.in ${1}")
		cmd := testerr.Shall1(g.Generate("hello.txt")).BeNil(t)
		if cmd != "cp hello.txt.in hello.txt" {
			t.Errorf("generated '%s'", cmd)
		}
	})
	t.Run("missing input", func(t *testing.T) {
		testerr.Shall1(NewGenerator("cp ${1} ${2}").Generate("a")).
			Check(t, testerr.Msg("not enough inputs (1) for rule 'cp ${1} ${2}'"))
	})
	t.Run("no placeholders", func(t *testing.T) {
		cmd := testerr.Shall1(NewGenerator("touch marker").Generate()).BeNil(t)
		if cmd != "touch marker" {
			t.Errorf("generated '%s'", cmd)
		}
	})
}
