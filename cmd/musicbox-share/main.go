package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toybox/musicbox"
	"github.com/toybox/musicbox/codec"
	"github.com/toybox/musicbox/version"
)

func main() {
	decode := flag.Bool("d", false, "Decode: arguments are share strings (or URLs) instead of song files.")
	baseURL := flag.String("u", "", "When encoding, emit a full share URL with this base instead of a bare share string.")
	jsonOut := flag.Bool("j", false, "When decoding, output the song as .json instead of .yml.")
	outPath := flag.String("o", "", "Directory or filename where to write decoded songs. By default, decoded songs go to standard output.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	retval := 0
	for _, param := range flag.Args() {
		var err error
		if *decode {
			err = decodeCode(param, *jsonOut, *outPath)
		} else {
			err = encodeFile(param, *baseURL)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not process %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

// encodeFile reads a song file (.yml or .json) and prints its share string,
// or a full share URL when a base URL was given.
func encodeFile(filename, baseURL string) error {
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("could not read file %v: %v", filename, err)
	}
	var song musicbox.Song
	if errJSON := json.Unmarshal(inputBytes, &song); errJSON != nil {
		if errYaml := yaml.Unmarshal(inputBytes, &song); errYaml != nil {
			return fmt.Errorf("song could not be unmarshaled as a .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if song.BeatCount == 0 {
		song.BeatCount = musicbox.BeatCounts[0]
	}
	if err := song.Validate(); err != nil {
		return fmt.Errorf("song is not valid: %v", err)
	}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("could not parse base URL %v: %v", baseURL, err)
		}
		fmt.Println(codec.SongURL(base, song).String())
		return nil
	}
	fmt.Println(codec.Encode(song))
	return nil
}

// decodeCode parses a share string or share URL and writes the song it
// carries as .yml (or .json) to stdout or to the output path.
func decodeCode(code string, jsonOut bool, outPath string) error {
	song, err := decodeAny(code)
	if err != nil {
		return err
	}
	var contents []byte
	extension := ".yml"
	if jsonOut {
		contents, err = json.Marshal(song)
		extension = ".json"
	} else {
		contents, err = yaml.Marshal(song)
	}
	if err != nil {
		return fmt.Errorf("could not marshal the song: %v", err)
	}
	if outPath == "" {
		fmt.Print(string(contents))
		return nil
	}
	f := outPath
	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		f = filepath.Join(outPath, "song"+extension)
	}
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %v", f, err)
	}
	return nil
}

func decodeAny(code string) (musicbox.Song, error) {
	if strings.Contains(code, "://") {
		u, err := url.Parse(code)
		if err != nil {
			return musicbox.Song{}, fmt.Errorf("could not parse URL: %v", err)
		}
		return codec.SongFromURL(u)
	}
	return codec.Decode(code)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Music box share tool. Encodes .yml or .json songs into share strings and decodes share strings (or URLs) back into songs.\nUsage: %s [flags] [path or code ...]\n", os.Args[0])
	flag.PrintDefaults()
}
