// Package runtime runs external tools on the host.
//
// Every tool forge depends on (the compiler, its metadata query, the shell
// used for post-copy scripts, the initrd archiver, the ISO builder and the
// emulator) is started through the [Runner] interface. A [Command] carries
// the program, its arguments, working directory and environment overrides;
// the standard error stream can be consumed line by line while the process
// is still running, which is how build jobs feed their progress slot.
//
// A non-zero exit status is not an error at this layer. [Runner.Exec]
// returns an error only when the process could not be started or waited
// for; the caller inspects [ExecResult.ExitCode] and decides.
//
// Example usage:
//
//	rt := runtime.NewHostRunner()
//	res, err := rt.Exec(ctx, runtime.Command{
//	    Name: "cargo",
//	    Args: []string{"build", "--release"},
//	    Dir:  "/src/components/init",
//	    OnStderrLine: func(line string) {
//	        display.Upsert("init", line)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	if !res.Success() {
//	    return fmt.Errorf("cargo exited with %d: %s", res.ExitCode, res.Stderr)
//	}
package runtime
