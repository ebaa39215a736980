package classpath

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/classfile/classfiletest"
	"github.com/daimatz/gojavap/pkg/log"
)

func classBytes(name string) []byte {
	return classfiletest.New(name, "java/lang/Object").Bytes()
}

func writeClass(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, classBytes(name), 0o644))
}

func writeArchive(t *testing.T, path string, header []byte, prefix string, names ...string) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(header)
	// jmod offsets are relative to the end of the header
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(prefix + name + ".class")
		require.NoError(t, err)
		_, err = w.Write(classBytes(name))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func className(t *testing.T, cf *classfile.ClassFile) string {
	t.Helper()
	name, err := cf.ClassName()
	require.NoError(t, err)
	return name
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	writeClass(t, classes, "com/example/Hello")
	writeClass(t, classes, "Top")
	jar := filepath.Join(dir, "lib.jar")
	writeArchive(t, jar, nil, "", "org/lib/Util", "Top")
	jmod := filepath.Join(dir, "java.base.jmod")
	writeArchive(t, jmod, jmodMagic, "classes/", "java/lang/Object")

	p := New(strings.Join([]string{classes, "", jar, filepath.Join(dir, "missing.jar"), jmod}, string(os.PathListSeparator)))
	assert.Equal(t, []string{classes, jar, filepath.Join(dir, "missing.jar"), jmod}, p.Entries())

	tests := []struct {
		query string
		want  string
	}{
		{"com.example.Hello", "com/example/Hello"},
		{"com/example/Hello", "com/example/Hello"},
		{"com.example.Hello.class", "com/example/Hello"},
		{"org.lib.Util", "org/lib/Util"},
		{"java.lang.Object", "java/lang/Object"},
		{"Top", "Top"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cf, err := p.Find(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, className(t, cf))
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := p.Find("com.example.Nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cached", func(t *testing.T) {
		first, err := p.Find("org.lib.Util")
		require.NoError(t, err)
		second, err := p.Find("org/lib/Util")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})
}

func TestFindClassFilePath(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, "Loose")

	p := New("")
	cf, err := p.Find(filepath.Join(dir, "Loose.class"))
	require.NoError(t, err)
	assert.Equal(t, "Loose", className(t, cf))
}

func TestFindBadJmodHeader(t *testing.T) {
	dir := t.TempDir()
	jmod := filepath.Join(dir, "bad.jmod")
	writeArchive(t, jmod, nil, "classes/", "A")

	_, err := New(jmod).Find("A")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "bad header")
}

func TestFindCorruptClass(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.class"), []byte{0xCA, 0xFE}, 0o644))

	_, err := New(dir).Find("Broken")
	assert.ErrorIs(t, err, classfile.ErrTruncated)
}

func TestInternalName(t *testing.T) {
	assert.Equal(t, "java/util/Map$Entry", InternalName("java.util.Map$Entry"))
	assert.Equal(t, "Foo", InternalName("Foo.class"))
	assert.Equal(t, "a/b/C", InternalName("a/b/C"))
}

func TestFindMissingArchiveWarns(t *testing.T) {
	prev := log.Root()
	t.Cleanup(func() { log.SetDefault(prev) })
	var buf bytes.Buffer
	require.NoError(t, log.InitLogger(&buf, "warn"))

	dir := t.TempDir()
	writeClass(t, dir, "A")
	missing := filepath.Join(dir, "gone.jar")
	p := New(missing + string(os.PathListSeparator) + dir)

	_, err := p.Find("A")
	require.NoError(t, err)
	_, err = p.Find("B")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, strings.Count(buf.String(), "class path entry does not exist"))
	assert.Contains(t, buf.String(), "gone.jar")
}
