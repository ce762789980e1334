/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gohybrid/darcy"
	"github.com/notargets/gohybrid/model_problems/Darcy2D"
)

type ModelDarcy struct {
	ICFile  string
	Profile bool
}

type InputParameters struct {
	Title     string  `yaml:"Title"`
	N         int     `yaml:"N"`
	Alpha     float64 `yaml:"Alpha"`
	Beta      float64 `yaml:"Beta"`
	Gamma     float64 `yaml:"Gamma"`
	BSym      bool    `yaml:"BSym"`
	Nonlinear bool    `yaml:"Nonlinear"`
	Strict    bool    `yaml:"Strict"`
	Tolerance float64 `yaml:"Tolerance"`
	MaxIter   int     `yaml:"MaxIter"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%d\t\t\t= N (elements per side)\n", ip.N)
	fmt.Printf("%8.5f\t\t= Alpha\n", ip.Alpha)
	fmt.Printf("%8.5f\t\t= Beta\n", ip.Beta)
	fmt.Printf("%8.5f\t\t= Gamma\n", ip.Gamma)
	fmt.Printf("[%v]\t\t\t= BSym\n", ip.BSym)
	fmt.Printf("[%v]\t\t\t= Nonlinear\n", ip.Nonlinear)
	fmt.Printf("[%v]\t\t\t= Strict local solves\n", ip.Strict)
}

// DarcyCmd represents the darcy command
var DarcyCmd = &cobra.Command{
	Use:   "darcy",
	Short: "Hybridized Darcy solver on a Cartesian quad mesh",
	Long: `Statically condenses the mixed Darcy system onto the interior face
traces, solves the reduced system with conjugate gradients and recovers the
flux and potential fields`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("darcy called")
		md := &ModelDarcy{}
		if md.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		md.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processDarcyInput(cmd, md)
		RunDarcy(md, ip)
	},
}

func processDarcyInput(cmd *cobra.Command, md *ModelDarcy) (ip *InputParameters) {
	var (
		err error
	)
	ip = &InputParameters{}
	ip.N, _ = cmd.Flags().GetInt("n")
	ip.Alpha, _ = cmd.Flags().GetFloat64("alpha")
	ip.Beta, _ = cmd.Flags().GetFloat64("beta")
	ip.Gamma, _ = cmd.Flags().GetFloat64("gamma")
	ip.BSym, _ = cmd.Flags().GetBool("bsym")
	ip.Nonlinear, _ = cmd.Flags().GetBool("nonlinear")
	ip.Strict, _ = cmd.Flags().GetBool("strict")
	ip.Tolerance, _ = cmd.Flags().GetFloat64("tolerance")
	ip.MaxIter, _ = cmd.Flags().GetInt("maxIter")
	if len(md.ICFile) != 0 {
		var data []byte
		if data, err = ioutil.ReadFile(md.ICFile); err != nil {
			panic(err)
		}
		if err = ip.Parse(data); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			exampleFile := `
########################################
Title: "Single Phase Flow"
N: 32
Alpha: 1.
Beta: 0.1
Nonlinear: false
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
	}
	return
}

func RunDarcy(md *ModelDarcy, ip *InputParameters) {
	if md.Profile {
		defer profile.Start().Stop()
	}
	ip.Print()
	pr := Darcy2D.Parameters{
		N:         ip.N,
		Alpha:     ip.Alpha,
		Beta:      ip.Beta,
		Gamma:     ip.Gamma,
		BSym:      ip.BSym,
		Nonlinear: ip.Nonlinear,
		Tol:       ip.Tolerance,
		MaxIter:   ip.MaxIter,
	}
	if ip.Strict {
		pr.SolveMode = darcy.Strict
	}
	start := time.Now()
	dp, err := Darcy2D.New(pr)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	dp.SetLog(os.Stderr)
	sol, stats, err := dp.Solve()
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	elapsed := time.Since(start)
	fmt.Printf("elapsed: %v\n", elapsed)
	fmt.Printf("outer iterations: %d, krylov iterations: %d\n",
		stats.OuterIterations, stats.KrylovIterations)
	fmt.Printf("trace residual: %8.5g, full system residual: %8.5g\n",
		stats.TraceResidual, stats.FullResidual)
	p := sol.Block(1)
	var pMin, pMax float64
	for i := 0; i < p.Len(); i++ {
		v := p.AtVec(i)
		if i == 0 || v < pMin {
			pMin = v
		}
		if i == 0 || v > pMax {
			pMax = v
		}
	}
	fmt.Printf("potential range: [%8.5f, %8.5f]\n", pMin, pMax)
}

func init() {
	rootCmd.AddCommand(DarcyCmd)
	DarcyCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- N\n\t- Alpha, Beta, Gamma")
	DarcyCmd.Flags().IntP("n", "n", 16, "number of elements per side of the unit square")
	DarcyCmd.Flags().Float64("alpha", 1, "flux mass coefficient")
	DarcyCmd.Flags().Float64("beta", 1, "potential reaction coefficient")
	DarcyCmd.Flags().Float64("gamma", 0, "cubic coefficient of the nonlinear reaction")
	DarcyCmd.Flags().Bool("bsym", false, "use the symmetrized saddle-point convention")
	DarcyCmd.Flags().Bool("nonlinear", false, "solve the reaction term through the nonlinear regime")
	DarcyCmd.Flags().Bool("strict", false, "fail on local solver non-convergence instead of logging")
	DarcyCmd.Flags().Float64("tolerance", 1e-10, "relative tolerance of the reduced solve")
	DarcyCmd.Flags().Int("maxIter", 2000, "iteration cap of the reduced solve")
	DarcyCmd.Flags().Bool("profile", false, "write a CPU profile of the run")
}
