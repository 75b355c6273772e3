// Package classfile reads the parts of a JVM class file needed to find
// tests: the class name, its methods and the annotations on both.
package classfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const magic = 0xCAFEBABE

// ErrNotClassFile is returned when the input does not start with the class
// file magic number.
var ErrNotClassFile = errors.New("not a class file")

// constant pool tags
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

const (
	attrVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

// Class is a parsed class file.
type Class struct {
	// Name is the fully qualified binary name, e.g. com.acme.Outer$Inner.
	Name        string
	SuperName   string
	AccessFlags uint16
	Annotations []string
	Methods     []Method
}

// Method is a method declared by the class, in class file order.
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags uint16
	Annotations []string
}

// PackageName returns the package part of the class name.
func (c *Class) PackageName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// SimpleName returns the class name without its package.
func (c *Class) SimpleName() string {
	if pkg := c.PackageName(); pkg != "" {
		return c.Name[len(pkg)+1:]
	}
	return c.Name
}

// HasAnnotation reports whether the class carries the annotation type.
func (c *Class) HasAnnotation(typeName string) bool {
	return contains(c.Annotations, typeName)
}

// HasAnnotation reports whether the method carries the annotation type.
func (m *Method) HasAnnotation(typeName string) bool {
	return contains(m.Annotations, typeName)
}

// IsInitializer reports whether the method is a constructor or static
// initializer.
func (m *Method) IsInitializer() bool {
	return m.Name == "<init>" || m.Name == "<clinit>"
}

// ParseFile parses the class file at path.
func ParseFile(path string) (*Class, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	class, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return class, nil
}

// ParseBytes parses an in-memory class file.
func ParseBytes(data []byte) (*Class, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a class file from r.
func Parse(r io.Reader) (*Class, error) {
	p := &parser{r: r}
	return p.parse()
}

type constant struct {
	tag   byte
	utf8  string
	index uint16 // name index for Class entries
}

type parser struct {
	r    io.Reader
	pool []constant
	err  error
	buf  [8]byte
}

func (p *parser) parse() (*Class, error) {
	if m := p.u4(); p.err == nil && m != magic {
		return nil, ErrNotClassFile
	}
	p.u2() // minor
	p.u2() // major
	if err := p.readPool(); err != nil {
		return nil, err
	}

	class := &Class{AccessFlags: p.u2()}
	thisClass := p.u2()
	superClass := p.u2()
	if p.err != nil {
		return nil, p.fail()
	}

	var err error
	if class.Name, err = p.className(thisClass); err != nil {
		return nil, err
	}
	if superClass != 0 {
		if class.SuperName, err = p.className(superClass); err != nil {
			return nil, err
		}
	}

	p.skip(int64(p.u2()) * 2) // interfaces

	fields := p.u2()
	for i := 0; i < int(fields) && p.err == nil; i++ {
		p.u2() // access
		p.u2() // name
		p.u2() // descriptor
		if _, err := p.readAttributes(); err != nil {
			return nil, err
		}
	}

	methods := p.u2()
	for i := 0; i < int(methods) && p.err == nil; i++ {
		m := Method{AccessFlags: p.u2()}
		nameIdx, descIdx := p.u2(), p.u2()
		if p.err != nil {
			break
		}
		if m.Name, err = p.utf8(nameIdx); err != nil {
			return nil, err
		}
		if m.Descriptor, err = p.utf8(descIdx); err != nil {
			return nil, err
		}
		if m.Annotations, err = p.readAttributes(); err != nil {
			return nil, err
		}
		class.Methods = append(class.Methods, m)
	}

	if class.Annotations, err = p.readAttributes(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.fail()
	}
	return class, nil
}

func (p *parser) fail() error {
	if errors.Is(p.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return p.err
}

func (p *parser) readPool() error {
	count := p.u2()
	if p.err != nil {
		return p.fail()
	}
	p.pool = make([]constant, count)
	for i := 1; i < int(count); i++ {
		tag := p.u1()
		c := constant{tag: tag}
		switch tag {
		case tagUtf8:
			n := p.u2()
			b := p.bytes(int64(n))
			c.utf8 = decodeModifiedUTF8(b)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.index = p.u2()
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			p.skip(4)
		case tagLong, tagDouble:
			p.skip(8)
			p.pool[i] = c
			i++ // takes two slots
			continue
		case tagMethodHandle:
			p.skip(3)
		default:
			if p.err == nil {
				return fmt.Errorf("constant pool entry %d: unknown tag %d", i, tag)
			}
		}
		if p.err != nil {
			return p.fail()
		}
		p.pool[i] = c
	}
	return nil
}

// readAttributes walks an attribute table and returns the annotation types
// found in the runtime (in)visible annotation attributes.
func (p *parser) readAttributes() ([]string, error) {
	count := p.u2()
	var annotations []string
	for i := 0; i < int(count) && p.err == nil; i++ {
		nameIdx := p.u2()
		length := p.u4()
		if p.err != nil {
			break
		}
		name, err := p.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		if name != attrVisibleAnnotations && name != attrInvisibleAnnotations {
			p.skip(int64(length))
			continue
		}
		body := p.bytes(int64(length))
		if p.err != nil {
			break
		}
		types, err := p.annotationTypes(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		annotations = append(annotations, types...)
	}
	if p.err != nil {
		return nil, p.fail()
	}
	return annotations, nil
}

func (p *parser) annotationTypes(body []byte) ([]string, error) {
	sub := &parser{r: bytes.NewReader(body), pool: p.pool}
	n := sub.u2()
	types := make([]string, 0, n)
	for i := 0; i < int(n) && sub.err == nil; i++ {
		typeName, err := sub.annotation()
		if err != nil {
			return nil, err
		}
		types = append(types, typeName)
	}
	if sub.err != nil {
		return nil, sub.fail()
	}
	return types, nil
}

// annotation reads one annotation structure and returns its type name.
func (p *parser) annotation() (string, error) {
	typeIdx := p.u2()
	pairs := p.u2()
	for i := 0; i < int(pairs) && p.err == nil; i++ {
		p.u2() // element name
		if err := p.elementValue(); err != nil {
			return "", err
		}
	}
	if p.err != nil {
		return "", p.fail()
	}
	desc, err := p.utf8(typeIdx)
	if err != nil {
		return "", err
	}
	return descriptorToName(desc), nil
}

func (p *parser) elementValue() error {
	switch tag := p.u1(); tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		p.u2()
	case 'e':
		p.skip(4)
	case '@':
		if _, err := p.annotation(); err != nil {
			return err
		}
	case '[':
		n := p.u2()
		for i := 0; i < int(n) && p.err == nil; i++ {
			if err := p.elementValue(); err != nil {
				return err
			}
		}
	default:
		if p.err == nil {
			return fmt.Errorf("unknown element value tag %q", tag)
		}
	}
	if p.err != nil {
		return p.fail()
	}
	return nil
}

func (p *parser) className(idx uint16) (string, error) {
	c, err := p.constant(idx, tagClass)
	if err != nil {
		return "", err
	}
	internal, err := p.utf8(c.index)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(internal, "/", "."), nil
}

func (p *parser) utf8(idx uint16) (string, error) {
	c, err := p.constant(idx, tagUtf8)
	if err != nil {
		return "", err
	}
	return c.utf8, nil
}

func (p *parser) constant(idx uint16, tag byte) (constant, error) {
	if idx == 0 || int(idx) >= len(p.pool) {
		return constant{}, fmt.Errorf("constant pool index %d out of range", idx)
	}
	c := p.pool[idx]
	if c.tag != tag {
		return constant{}, fmt.Errorf("constant pool index %d: expected tag %d, got %d", idx, tag, c.tag)
	}
	return c, nil
}

func (p *parser) u1() byte {
	if p.err != nil {
		return 0
	}
	_, p.err = io.ReadFull(p.r, p.buf[:1])
	return p.buf[0]
}

func (p *parser) u2() uint16 {
	if p.err != nil {
		return 0
	}
	_, p.err = io.ReadFull(p.r, p.buf[:2])
	return binary.BigEndian.Uint16(p.buf[:2])
}

func (p *parser) u4() uint32 {
	if p.err != nil {
		return 0
	}
	_, p.err = io.ReadFull(p.r, p.buf[:4])
	return binary.BigEndian.Uint32(p.buf[:4])
}

// bytes reads n bytes. Lengths come from the input, so the buffer only grows
// with what the reader actually delivers.
func (p *parser) bytes(n int64) []byte {
	if p.err != nil {
		return nil
	}
	var b []byte
	b, p.err = io.ReadAll(io.LimitReader(p.r, n))
	if p.err == nil && int64(len(b)) != n {
		p.err = io.ErrUnexpectedEOF
	}
	return b
}

func (p *parser) skip(n int64) {
	if p.err != nil || n == 0 {
		return
	}
	var copied int64
	copied, p.err = io.CopyN(io.Discard, p.r, n)
	if p.err == nil && copied != n {
		p.err = io.ErrUnexpectedEOF
	}
}

// descriptorToName turns "Lorg/testng/annotations/Test;" into
// "org.testng.annotations.Test".
func descriptorToName(desc string) string {
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		desc = desc[1 : len(desc)-1]
	}
	return strings.ReplaceAll(desc, "/", ".")
}

// decodeModifiedUTF8 maps the JVM's two-byte NUL back to a single byte.
// Supplementary characters are left as encoded surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	if !bytes.Contains(b, []byte{0xC0, 0x80}) {
		return string(b)
	}
	return string(bytes.ReplaceAll(b, []byte{0xC0, 0x80}, []byte{0}))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
