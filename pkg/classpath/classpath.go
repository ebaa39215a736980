// Package classpath locates class files in directories, jar and zip
// archives and jmod images.
package classpath

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/log"
)

// ErrNotFound is returned by Find when no entry holds the class.
var ErrNotFound = errors.New("class not found")

var jmodMagic = []byte("JM\x01\x00")

// entry is one element of a class path.
type entry interface {
	// read returns the bytes of the class file for an internal name, or an
	// error wrapping fs.ErrNotExist if the entry does not hold it.
	read(name string) ([]byte, error)
	String() string
}

// Path is an ordered list of entries searched first to last. Decoded
// classes are cached, and a Path may be used from several goroutines.
type Path struct {
	entries []entry

	mu    sync.Mutex
	cache map[string]*classfile.ClassFile
}

// New builds a Path from a list separated by os.PathListSeparator. Each
// element is a directory, a .jar or .zip archive, or a .jmod image.
// Empty elements are ignored.
func New(pathList string) *Path {
	p := &Path{cache: make(map[string]*classfile.ClassFile)}
	for _, elem := range filepath.SplitList(pathList) {
		if elem == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(elem)) {
		case ".jar", ".zip":
			p.entries = append(p.entries, &archiveEntry{path: elem})
		case ".jmod":
			p.entries = append(p.entries, &archiveEntry{path: elem, jmod: true})
		default:
			p.entries = append(p.entries, dirEntry(elem))
		}
	}
	return p
}

// Entries returns the searched locations in order.
func (p *Path) Entries() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.String()
	}
	return out
}

// Find loads a class by binary name ("java.lang.String"), internal name
// ("java/lang/String") or file name ("String.class"). A name that is the
// path of an existing .class file is read from there directly.
func (p *Path) Find(name string) (*classfile.ClassFile, error) {
	if strings.HasSuffix(name, ".class") {
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			log.Debug(log.Classpath, "reading class file", "path", name)
			return classfile.ParseFile(name)
		}
	}
	internal := InternalName(name)

	p.mu.Lock()
	cf, ok := p.cache[internal]
	p.mu.Unlock()
	if ok {
		return cf, nil
	}

	for _, e := range p.entries {
		data, err := e.read(internal)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Debug(log.Classpath, "class found", "class", internal, "entry", e.String())
		cf, err := classfile.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s from %s: %w", internal, e, err)
		}
		p.mu.Lock()
		p.cache[internal] = cf
		p.mu.Unlock()
		return cf, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// InternalName converts a binary or file name to the slash-separated
// form used inside class files.
func InternalName(name string) string {
	name = strings.TrimSuffix(name, ".class")
	return strings.ReplaceAll(name, ".", "/")
}

type dirEntry string

func (d dirEntry) String() string { return string(d) }

func (d dirEntry) read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)+".class"))
}

// archiveEntry is opened on first use. jmod images carry a four byte
// header in front of the zip data and keep classes under "classes/".
type archiveEntry struct {
	path string
	jmod bool

	once  sync.Once
	files map[string]*zip.File
	err   error
}

func (a *archiveEntry) String() string { return a.path }

func (a *archiveEntry) open() error {
	a.once.Do(func() {
		data, err := os.ReadFile(a.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn(log.Classpath, "class path entry does not exist", "path", a.path)
			}
			a.err = err
			return
		}
		if a.jmod {
			if !bytes.HasPrefix(data, jmodMagic) {
				a.err = fmt.Errorf("jmod: %s: bad header", a.path)
				return
			}
			data = data[len(jmodMagic):]
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			a.err = fmt.Errorf("opening %s: %w", a.path, err)
			return
		}
		a.files = make(map[string]*zip.File, len(zr.File))
		for _, f := range zr.File {
			a.files[f.Name] = f
		}
		log.Debug(log.Classpath, "archive opened", "path", a.path, "entries", len(zr.File))
	})
	return a.err
}

func (a *archiveEntry) read(name string) ([]byte, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	target := name + ".class"
	if a.jmod {
		target = "classes/" + target
	}
	f, ok := a.files[target]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", target, a.path, fs.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", target, a.path, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
