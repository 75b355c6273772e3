// Package testutil assembles small but valid JVM class files and jar
// archives for tests, so no Java toolchain is needed to exercise the scanner.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TestNG is the default marker annotation.
const TestNG = "org.testng.annotations.Test"

// Annotation describes one annotation instance. Values become string array
// elements, e.g. groups = {"smoke"}.
type Annotation struct {
	Type   string
	Values map[string][]string
	Flag   string // optional boolean element set to true, e.g. "enabled"
}

// Method describes a public void no-arg method.
type Method struct {
	Name        string
	Annotations []Annotation
}

// Class describes a class to assemble.
type Class struct {
	Name        string // fully qualified, dotted
	Annotations []Annotation
	Methods     []Method
	// Invisible stores the annotations as RuntimeInvisibleAnnotations.
	Invisible bool
}

// Marked returns an annotation of the given type with no elements.
func Marked(typeName string) []Annotation {
	return []Annotation{{Type: typeName}}
}

// ClassBytes assembles the class file for c.
func ClassBytes(c Class) []byte {
	g := &generator{index: map[string]uint16{}}
	thisClass := g.class(strings.ReplaceAll(c.Name, ".", "/"))
	superClass := g.class("java/lang/Object")
	attrName := "RuntimeVisibleAnnotations"
	if c.Invisible {
		attrName = "RuntimeInvisibleAnnotations"
	}

	var body bytes.Buffer
	w16(&body, 0x0021) // public super
	w16(&body, thisClass)
	w16(&body, superClass)
	w16(&body, 0) // interfaces

	// one field so field attribute tables are exercised
	w16(&body, 1)
	w16(&body, 0x0002)
	w16(&body, g.utf8("counter"))
	w16(&body, g.utf8("I"))
	w16(&body, 1)
	w16(&body, g.utf8("ConstantValue"))
	w32(&body, 2)
	w16(&body, g.integer(7))

	w16(&body, uint16(len(c.Methods)+1))
	writeMethod(&body, g, Method{Name: "<init>"}, attrName)
	for _, m := range c.Methods {
		writeMethod(&body, g, m, attrName)
	}

	writeAnnotationAttributes(&body, g, c.Annotations, attrName)

	var out bytes.Buffer
	w32(&out, 0xCAFEBABE)
	w16(&out, 0)
	w16(&out, 52)
	w16(&out, uint16(g.count+1))
	out.Write(g.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

// WriteClass writes the class file under root following its package layout
// and returns the file path.
func WriteClass(root string, c Class) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(c.Name, ".", "/"))+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, ClassBytes(c), 0644)
}

// WriteJar writes a jar with the given entries (name -> content).
func WriteJar(path string, entries map[string][]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(entries[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// ClassEntry returns the jar entry name for a dotted class name.
func ClassEntry(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".class"
}

func writeMethod(buf *bytes.Buffer, g *generator, m Method, attrName string) {
	w16(buf, 0x0001)
	w16(buf, g.utf8(m.Name))
	w16(buf, g.utf8("()V"))
	writeAnnotationAttributes(buf, g, m.Annotations, attrName)
}

func writeAnnotationAttributes(buf *bytes.Buffer, g *generator, annotations []Annotation, attrName string) {
	if len(annotations) == 0 {
		w16(buf, 0)
		return
	}

	var attr bytes.Buffer
	w16(&attr, uint16(len(annotations)))
	for _, a := range annotations {
		w16(&attr, g.utf8("L"+strings.ReplaceAll(a.Type, ".", "/")+";"))

		keys := make([]string, 0, len(a.Values))
		for k := range a.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := len(keys)
		if a.Flag != "" {
			pairs++
		}
		w16(&attr, uint16(pairs))
		for _, k := range keys {
			w16(&attr, g.utf8(k))
			attr.WriteByte('[')
			w16(&attr, uint16(len(a.Values[k])))
			for _, v := range a.Values[k] {
				attr.WriteByte('s')
				w16(&attr, g.utf8(v))
			}
		}
		if a.Flag != "" {
			w16(&attr, g.utf8(a.Flag))
			attr.WriteByte('Z')
			w16(&attr, g.integer(1))
		}
	}

	w16(buf, 1)
	w16(buf, g.utf8(attrName))
	w32(buf, uint32(attr.Len()))
	buf.Write(attr.Bytes())
}

type generator struct {
	pool  bytes.Buffer
	count int
	index map[string]uint16
}

func (g *generator) utf8(s string) uint16 {
	key := "u:" + s
	if idx, ok := g.index[key]; ok {
		return idx
	}
	g.pool.WriteByte(1)
	w16(&g.pool, uint16(len(s)))
	g.pool.WriteString(s)
	return g.add(key)
}

func (g *generator) class(internalName string) uint16 {
	key := "c:" + internalName
	if idx, ok := g.index[key]; ok {
		return idx
	}
	name := g.utf8(internalName)
	g.pool.WriteByte(7)
	w16(&g.pool, name)
	return g.add(key)
}

func (g *generator) integer(v int32) uint16 {
	g.pool.WriteByte(3)
	w32(&g.pool, uint32(v))
	g.count++
	return uint16(g.count)
}

func (g *generator) add(key string) uint16 {
	g.count++
	g.index[key] = uint16(g.count)
	return uint16(g.count)
}

func w16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func w32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
