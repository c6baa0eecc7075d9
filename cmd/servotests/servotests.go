package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Jibanyan-FCU/side-project/pkg/pca9685"
)

var CLI struct {
	Device string `help:"I2C bus the PCA9685 is on." default:"/dev/i2c-1"`
	Dummy  bool   `help:"Log instead of driving the PCA9685."`
}

func main() {
	kong.Parse(&CLI, kong.Description("Drive PCA9685 outputs by hand."))

	var pwmController pca9685.Interface = pca9685.Dummy()
	if !CLI.Dummy {
		p, err := pca9685.New(CLI.Device, pca9685.DefaultServoPulse)
		if err != nil {
			fmt.Println("Failed to open PCA9685", err)
			return
		}
		pwmController = p
	}
	defer pwmController.Close()

	err := pwmController.Configure()
	if err != nil {
		fmt.Println("Failed to configure PCA9685", err)
		return
	}

	fmt.Println(
		`Commands:
    s <n> <position>        # Configure port for servo
    p <n> <pwm-duty-cycle>  # Configure port for PWM
    o <n>                   # Turn port fully off

<n>               Port number 0-15
<position>        Servo position 0.0-1.0; 0.5=centre
<pwm-duty-cycle>  Raw PWM duty cycle 0.0-1.0; 0=fully off, 1.0=fully on`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "o":
			if len(parts) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
			if err := pwmController.Off(n); err != nil {
				fmt.Println("Failed to write to PCA9685: ", err)
			}
		case "s", "p":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
			if n < 0 || n >= pca9685.NumPorts {
				fmt.Println("Expected 0 <= n < 16")
				continue
			}
			v, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				fmt.Println("Expected float, not ", parts[2])
				continue
			}
			if parts[0] == "s" {
				fmt.Printf("Setting servo %d to %f\n", n, v)
				err = pwmController.SetServo(n, v)
			} else {
				fmt.Printf("Setting PWM %d to %f\n", n, v)
				err = pwmController.SetPWM(n, v)
			}
			if err != nil {
				fmt.Println("Failed to write to PCA9685: ", err)
				return
			}
		}
	}
}
