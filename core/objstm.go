package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// ObjectStream gives access to the objects packed into a /Type /ObjStm
// stream. The stream is decoded and its header read on first access.
type ObjectStream struct {
	stream *Stream
	n      int
	first  int

	data    []byte
	numbers []int // object number per index
	offsets []int // offset per index, relative to first
	cache   map[int]Object
}

// NewObjectStream checks the stream dictionary of an object stream
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("object stream is nil")
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "ObjStm" {
		return nil, fmt.Errorf("not an object stream: /Type %v", stream.Dict.Get("Type"))
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream: invalid /N %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream: invalid /First %v", stream.Dict.Get("First"))
	}
	return &ObjectStream{stream: stream, n: int(n), first: int(first), cache: map[int]Object{}}, nil
}

// N returns the number of objects the dictionary declares
func (s *ObjectStream) N() int { return s.n }

// First returns the offset of the first object in the decoded data
func (s *ObjectStream) First() int { return s.first }

func (s *ObjectStream) load() error {
	if s.data != nil {
		return nil
	}
	data, err := s.stream.Decode()
	if err != nil {
		return fmt.Errorf("decode object stream: %w", err)
	}
	if s.first > len(data) {
		return fmt.Errorf("object stream: /First %d beyond %d decoded bytes", s.first, len(data))
	}

	// the header is N pairs of "number offset"
	fields := bytes.Fields(data[:s.first])
	if len(fields) < 2*s.n {
		return fmt.Errorf("object stream: header has %d numbers, want %d", len(fields), 2*s.n)
	}
	numbers := make([]int, s.n)
	offsets := make([]int, s.n)
	for i, iN := 0, s.n; i < iN; i++ {
		num, err1 := strconv.Atoi(string(fields[2*i]))
		off, err2 := strconv.Atoi(string(fields[2*i+1]))
		if err1 != nil || err2 != nil || off < 0 {
			return fmt.Errorf("object stream: bad header pair %d: %s %s", i, fields[2*i], fields[2*i+1])
		}
		numbers[i], offsets[i] = num, off
	}

	s.data, s.numbers, s.offsets = data, numbers, offsets
	return nil
}

// GetObjectByIndex parses the object at a header position and returns it
// with its object number.
func (s *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := s.load(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= s.n {
		return nil, 0, fmt.Errorf("object stream index %d out of range [0, %d)", index, s.n)
	}
	if obj, ok := s.cache[index]; ok {
		return obj, s.numbers[index], nil
	}

	start := s.first + s.offsets[index]
	end := len(s.data)
	if index+1 < s.n {
		end = min(end, s.first+s.offsets[index+1])
	}
	if start >= end {
		return nil, 0, fmt.Errorf("object %d: offset %d outside stream data", s.numbers[index], start)
	}

	obj, err := NewParser(bytes.NewReader(s.data[start:end])).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("object %d in object stream: %w", s.numbers[index], err)
	}
	s.cache[index] = obj
	return obj, s.numbers[index], nil
}

// GetObjectByNumber returns the object with the given number and its index
func (s *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	if err := s.load(); err != nil {
		return nil, 0, err
	}
	for i, num := range s.numbers {
		if num == objNum {
			obj, _, err := s.GetObjectByIndex(i)
			return obj, i, err
		}
	}
	return nil, 0, fmt.Errorf("object %d not in object stream", objNum)
}
