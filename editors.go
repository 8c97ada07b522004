package zmake

import "git.fractalqb.de/fractalqb/zmake/zmakore"

// ProjectEd is used with [Edit].
type ProjectEd struct{ eng *Engine }

func (ed ProjectEd) Engine() *Engine { return ed.eng }

// InDir runs do with the rules directory switched to dir, given relative to
// the project root.
func (ed ProjectEd) InDir(dir string, do func(DirEd)) {
	mustEd(ed.eng.InDir(dir, func(*Engine) error {
		do(DirEd{ed.eng})
		return nil
	}))
}

// Dir edits the rules of the project root directory itself.
func (ed ProjectEd) Dir() DirEd { return DirEd{ed.eng} }

// ImportLib makes one prebuilt library available under '@'+name.
func (ed ProjectEd) ImportLib(name, file string, incDirs ...string) LibEd {
	return LibEd{ed.eng, mustRet(ed.eng.ImportLibrary(name, file, incDirs...))}
}

// ImportPackage imports every library of a package dir laid out as
// <dir>/lib and <dir>/include.
func (ed ProjectEd) ImportPackage(pkg, dir string) {
	mustEd(ed.eng.ImportLibraries(pkg, dir))
}

// ImportProject imports the exported library table of another project built
// with this tool.
func (ed ProjectEd) ImportProject(root string) {
	mustRet(ed.eng.ImportExternalProject(root))
}

// Generator installs rule as default build rule for files with extension
// ext. "${1}" in the rule is replaced with the file.
func (ed ProjectEd) Generator(ext, rule string) {
	ed.eng.RegisterGenerator(ext, rule)
}

func (ed ProjectEd) PreRun(r Runner)  { ed.eng.PreRun(r) }
func (ed ProjectEd) PostRun(r Runner) { ed.eng.PostRun(r) }

// DirEd edits the rules of one directory. It is used with [Edit].
type DirEd struct{ eng *Engine }

func (ed DirEd) Engine() *Engine { return ed.eng }

// Library declares a static library built from objs.
func (ed DirEd) Library(name string, objs ...string) LibEd {
	l := mustRet(ed.eng.AccessLibrary(name, false))
	mustEd(l.AddObjs(objs...))
	return LibEd{ed.eng, l}
}

// SharedLibrary declares a shared library built from objs. Its objects are
// compiled with -fPIC.
func (ed DirEd) SharedLibrary(name string, objs ...string) LibEd {
	l := mustRet(ed.eng.AccessLibrary(name, true))
	mustEd(l.AddObjs(objs...))
	return LibEd{ed.eng, l}
}

// Binary declares an executable linked from objs.
func (ed DirEd) Binary(name string, objs ...string) BinEd {
	b := mustRet(ed.eng.AccessBinary(name))
	mustEd(b.AddObjs(objs...))
	return BinEd{ed.eng, b}
}

// Object edits the object compiled from the source or object name.
func (ed DirEd) Object(name string) ObjEd {
	return ObjEd{ed.eng, mustRet(ed.eng.AccessObject(name))}
}

// Proto edits the proto node of file.
func (ed DirEd) Proto(file string) ProtoEd {
	return ProtoEd{ed.eng, mustRet(ed.eng.AccessProto(file))}
}

// File edits a generic file node, e.g. to give it a build rule of its own.
func (ed DirEd) File(name string) FileEd {
	return FileEd{ed.eng, mustRet(ed.eng.AccessFile(name))}
}

// LibEd is used with [Edit].
type LibEd struct {
	eng *Engine
	l   *Library
}

func (ed LibEd) Lib() *Library { return ed.l }

func (ed LibEd) Objs(names ...string) LibEd {
	mustEd(ed.l.AddObjs(names...))
	return ed
}

func (ed LibEd) Obj(name string) ObjEd {
	return ObjEd{ed.eng, mustRet(ed.l.AddObj(name))}
}

// Proto compiles file with protoc and adds the generated object to the
// library.
func (ed LibEd) Proto(file string) ProtoEd {
	return ProtoEd{ed.eng, mustRet(ed.l.AddProto(file))}
}

// DepLib wires another library of the project below this one.
func (ed LibEd) DepLib(name string) LibEd {
	mustEd(ed.l.AddLib(name))
	return ed
}

func (ed LibEd) IncludeDir(dir string) LibEd {
	mustEd(ed.l.AddIncludeDir(dir, ""))
	return ed
}

// IncludeDirAs exposes dir to library users as "<alias>/…".
func (ed LibEd) IncludeDirAs(dir, alias string) LibEd {
	mustEd(ed.l.AddIncludeDir(dir, alias))
	return ed
}

func (ed LibEd) Flags(flags ...string) LibEd {
	ed.l.Config().SetAll(flags...)
	return ed
}

// ObjsFlags sets flags for every object of the library.
func (ed LibEd) ObjsFlags(flags ...string) LibEd {
	ed.l.ObjsConfig().SetAll(flags...)
	for _, d := range ed.l.Deps() {
		if o, ok := d.(*Object); ok {
			o.Config().SetAll(flags...)
		}
	}
	return ed
}

// LinkFlags sets flags that join link commands pulling in the library
// whole.
func (ed LibEd) LinkFlags(flags ...string) LibEd {
	ed.l.LinkConfig().SetAll(flags...)
	return ed
}

func (ed LibEd) Target() LibEd {
	ed.eng.AddTargetNode(ed.l)
	return ed
}

func (ed LibEd) Install(destDir string, symlink bool) LibEd {
	ed.eng.RegisterInstall(ed.l, destDir, symlink)
	return ed
}

// BinEd is used with [Edit].
type BinEd struct {
	eng *Engine
	b   *Binary
}

func (ed BinEd) Bin() *Binary { return ed.b }

func (ed BinEd) Objs(names ...string) BinEd {
	mustEd(ed.b.AddObjs(names...))
	return ed
}

func (ed BinEd) Obj(name string) ObjEd {
	return ObjEd{ed.eng, mustRet(ed.b.AddObj(name))}
}

func (ed BinEd) Libs(names ...string) BinEd {
	mustEd(ed.b.AddLibs(names...))
	return ed
}

// WholeArchive links the library for name with every object, not only the
// referenced ones.
func (ed BinEd) WholeArchive(name string) BinEd {
	mustEd(ed.b.AddWholeArchiveLib(name))
	return ed
}

func (ed BinEd) LinkDir(dir string) BinEd {
	ed.b.AddLinkDir(dir)
	return ed
}

func (ed BinEd) Flags(flags ...string) BinEd {
	ed.b.Config().SetAll(flags...)
	return ed
}

func (ed BinEd) Target() BinEd {
	ed.eng.AddTargetNode(ed.b)
	return ed
}

func (ed BinEd) Install(destDir string, symlink bool) BinEd {
	ed.eng.RegisterInstall(ed.b, destDir, symlink)
	return ed
}

// ObjEd is used with [Edit].
type ObjEd struct {
	eng *Engine
	o   *Object
}

func (ed ObjEd) Obj() *Object { return ed.o }

func (ed ObjEd) Src(file string) ObjEd {
	mustEd(ed.o.AddSrc(file))
	return ed
}

func (ed ObjEd) Flags(flags ...string) ObjEd {
	ed.o.Config().SetAll(flags...)
	return ed
}

func (ed ObjEd) IncludeDir(dir string) ObjEd {
	ed.o.AddIncludeDir(dir)
	return ed
}

func (ed ObjEd) Compiler(c string) ObjEd {
	ed.o.SetCompiler(c)
	return ed
}

// ProtoEd is used with [Edit].
type ProtoEd struct {
	eng *Engine
	p   *Proto
}

func (ed ProtoEd) Proto() *Proto { return ed.p }

// Import wires the proto for file below this one, matching an import
// statement in the proto source.
func (ed ProtoEd) Import(file string) ProtoEd {
	mustRet(ed.p.AddImport(file))
	return ed
}

func (ed ProtoEd) ImportDir(dir string) ProtoEd {
	ed.p.AddImportDir(dir)
	return ed
}

// FileEd is used with [Edit].
type FileEd struct {
	eng *Engine
	n   Node
}

func (ed FileEd) Node() Node { return ed.n }

// Rule sets a build rule just for this file. "${1}" is replaced with the
// file.
func (ed FileEd) Rule(rule string) FileEd {
	ed.n.Base().SetGenerator(zmakore.NewGenerator(rule))
	return ed
}

func (ed FileEd) Deps(names ...string) FileEd {
	mustEd(ed.n.Base().AddDeps(names...))
	return ed
}

func (ed FileEd) Target() FileEd {
	ed.eng.AddTargetNode(ed.n)
	return ed
}
