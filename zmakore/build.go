package zmakore

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// defaultTargets is the implicit target set of a build without explicit
// targets: every library and binary of the project.
func (e *Engine) defaultTargets() []Node {
	var res []Node
	for _, n := range e.nodesWithPrefix("") {
		switch t := n.(type) {
		case *Library:
			if !t.imported {
				res = append(res, n)
			}
		case *Binary:
			res = append(res, n)
		}
	}
	return res
}

// BuildAll runs the pre runners, builds the target set, runs the post
// runners and persists the content hashes of everything it saw.
func (e *Engine) BuildAll() error {
	ctx := e.trace.Ctx()
	e.trace.StartStage("build all targets")
	for _, r := range e.preRun {
		if err := r(e); err != nil {
			return err
		}
	}
	targets := e.targets
	if len(targets) == 0 {
		targets = e.defaultTargets()
	}
	var err error
	if e.Jobs <= 1 {
		for _, t := range targets {
			if err = e.buildNode(ctx, t); err != nil {
				break
			}
		}
	} else {
		err = e.concurrentBuild(ctx, targets)
	}
	if err != nil {
		return err
	}
	for _, r := range e.postRun {
		if err := r(e); err != nil {
			return err
		}
	}
	return e.persistMd5s(targets)
}

// buildNode is the sequential build of one node after its deps. The
// concurrent builder uses the same per-node logic through buildOwnedNode.
func (e *Engine) buildNode(ctx context.Context, n Node) error {
	b := n.Base()
	if b.buildDone {
		return nil
	}
	e.forceGeneratingDeps(b)
	for _, d := range b.deps {
		if err := e.buildNode(ctx, d); err != nil {
			return err
		}
	}
	return e.buildOwnedNode(ctx, n)
}

// forceGeneratingDeps forces the deps of a generated file whose artifact
// does not exist yet, so the generating command runs even when nothing else
// asks for it.
func (e *Engine) forceGeneratingDeps(b *File) {
	if !b.generatedByDep {
		return
	}
	if _, err := os.Stat(b.file); err != nil {
		for _, d := range b.deps {
			d.Base().forcedBuild = true
		}
	}
}

// buildOwnedNode builds n itself, deps already done. Only the caller may
// touch n's build state.
func (e *Engine) buildOwnedNode(ctx context.Context, n Node) error {
	b := n.Base()
	if b.buildDone {
		return nil
	}
	b.buildDone = true
	has, err := n.Compose()
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	if b.cmd == "" {
		for _, d := range b.deps {
			if d.Base().hasBeenBuilt {
				b.hasBeenBuilt = true
				break
			}
		}
		return nil
	}
	need, reason, err := e.needRebuild(b)
	if err != nil {
		return err
	}
	if !need {
		return nil
	}
	if e.Debug > 0 {
		e.trace.Debug("> build `file` since `reason`", "file", b.file, "reason", reason)
	}
	if err := os.WriteFile(b.file+".cmd", []byte(b.cmd), 0666); err != nil {
		return fmt.Errorf("record command of '%s': %w", b.file, err)
	}
	if err := e.executeNode(ctx, b); err != nil {
		return err
	}
	b.hasBeenBuilt = true
	return nil
}

// needRebuild is the rebuild oracle: forced and freshly built deps always
// rebuild, then missing or empty artifacts, then a changed command, then a
// dep that is not older and genuinely changed content.
func (e *Engine) needRebuild(b *File) (bool, string, error) {
	if b.forcedBuild {
		return true, "forced", nil
	}
	for _, d := range b.deps {
		if d.Base().hasBeenBuilt {
			return true, "dep '" + d.Base().file + "' has been built", nil
		}
	}
	st, err := os.Stat(b.file)
	if err != nil {
		return true, "file does not exist", nil
	}
	if st.Size() == 0 {
		return true, "file is empty", nil
	}
	old, err := os.ReadFile(b.file + ".cmd")
	if err != nil || string(old) != b.cmd {
		return true, "command changed", nil
	}
	my := st.ModTime()
	for _, d := range b.deps {
		db := d.Base()
		dst, err := os.Stat(db.file)
		if err != nil {
			continue
		}
		if dst.ModTime().Before(my) {
			continue
		}
		chg, err := e.md5Changed(db.file)
		if err != nil {
			return false, "", err
		}
		if chg {
			return true, "dep '" + db.file + "' changed", nil
		}
	}
	return false, "", nil
}

func (e *Engine) md5Changed(file string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.md5s.Changed(file)
}

// executeNode runs the node's command in its rules directory through the
// shell and reports the outcome.
func (e *Engine) executeNode(ctx context.Context, b *File) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("(cd %s; %s)", b.cwd, b.cmd))
	cmd.Stdout = e.Out
	cmd.Stderr = e.Err
	start := time.Now()
	err := cmd.Run()
	dt := time.Since(start)
	e.mu.Lock()
	e.trace.targetReport(b.name, b.file, err == nil, dt)
	if e.Verbose {
		e.trace.targetCommand(b.cmd)
	}
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("build '%s': %w", b.file, err)
	}
	return nil
}

// persistMd5s rehashes every existing file in the targets' dep trees and
// writes the hash file back.
func (e *Engine) persistMd5s(targets []Node) error {
	var visited bitset.BitSet
	record := func(n Node) error {
		f := n.Base().file
		if _, err := os.Stat(f); err != nil {
			return nil
		}
		return e.md5s.Update(f)
	}
	for _, t := range targets {
		if err := walkDeps(t, &visited, record); err != nil {
			return err
		}
		id := t.Base().id
		if !visited.Test(id) {
			visited.Set(id)
			if err := record(t); err != nil {
				return err
			}
		}
	}
	return e.md5s.Persist()
}

// InstallAll copies or symlinks every registered artifact to its
// destination.
func (e *Engine) InstallAll() error {
	if len(e.installs) == 0 {
		return nil
	}
	e.trace.StartStage("install all targets")
	for _, in := range e.installs {
		src := in.node.Base().file
		if err := os.MkdirAll(in.destDir, 0777); err != nil {
			return err
		}
		dst := filepath.Join(in.destDir, filepath.Base(src))
		if in.symlink {
			os.Remove(dst)
			if err := os.Symlink(src, dst); err != nil {
				return fmt.Errorf("install '%s': %w", src, err)
			}
		} else if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("install '%s': %w", src, err)
		}
		e.trace.Info("installed `file` to `dir`", "file", src, "dir", in.destDir)
	}
	return nil
}

func copyFile(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return err
	}
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
