package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/fyer-docstore/codegen/fieldgen"
)

const usage = `fieldgen 为模型文件中的导出结构体生成文档字段访问器

Usage: fieldgen -i <model.go> [-o <output_dir>]

生成的 <struct>_fields.gen.go 与模型同包，默认写到模型文件所在目录。
`

func main() {
	input := flag.String("i", "", "model file, e.g. ./model/user.go")
	output := flag.String("o", "", "output directory, defaults to the model file's directory")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := checkInput(*input); err != nil {
		fmt.Fprintln(flag.CommandLine.Output(), err)
		flag.Usage()
		os.Exit(2)
	}

	outputDir := *output
	if outputDir == "" {
		outputDir = filepath.Dir(*input)
	}
	outputDir = filepath.Clean(outputDir)

	if err := fieldgen.Generate(*input, outputDir); err != nil {
		log.Fatalf("fieldgen: %v", err)
	}
	fmt.Printf("fieldgen: accessors for %s written to %s\n", filepath.Base(*input), outputDir)
}

// checkInput 只接受普通的 Go 源文件
func checkInput(path string) error {
	switch {
	case path == "":
		return errors.New("missing -i")
	case filepath.Ext(path) != ".go":
		return fmt.Errorf("%s is not a .go file", path)
	case strings.HasSuffix(path, "_test.go"), strings.HasSuffix(path, ".gen.go"):
		return fmt.Errorf("%s is a test or generated file", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
